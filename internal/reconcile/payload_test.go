package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_UnwrapsDataEnvelope(t *testing.T) {
	doc, err := ParsePayload([]byte(`{"data": {"income": {"final_income_lacs": 24}}}`))
	require.NoError(t, err)
	v, ok := doc.Doc("income").Num("final_income_lacs")
	assert.True(t, ok)
	assert.Equal(t, 24.0, v)
}

func TestParsePayload_FlatPayload(t *testing.T) {
	doc, err := ParsePayload([]byte(`{"income": {"final_income_lacs": 12}}`))
	require.NoError(t, err)
	_, ok := doc.Doc("income").Num("final_income_lacs")
	assert.True(t, ok)
}

func TestParsePayload_Empty(t *testing.T) {
	doc, err := ParsePayload(nil)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestDocument_Str_AltKeys(t *testing.T) {
	d := Document{"company_name": "Acme", "employer_name": ""}
	assert.Equal(t, "Acme", d.Str("employer_name", "company_name"))
	assert.Equal(t, "", d.Str("missing"))
}

func TestDocument_Str_NumericValue(t *testing.T) {
	d := Document{"pincode": 560001.0}
	assert.Equal(t, "560001", d.Str("pincode"))
}

func TestDocument_Num_Coercion(t *testing.T) {
	d := Document{"a": 5.0, "b": "7", "c": "1,25,000", "d": "oops"}
	v, ok := d.Num("a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	v, ok = d.Num("b")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = d.Num("c")
	assert.True(t, ok)
	assert.Equal(t, 125000.0, v)

	_, ok = d.Num("d")
	assert.False(t, ok)

	// Non-numeric first key falls through to a numeric alternate.
	v, ok = d.Num("d", "a")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestDocument_Bool_ExplicitOnly(t *testing.T) {
	d := Document{"a": true, "b": "false", "c": "maybe", "d": 1.0}
	v, ok := d.Bool("a")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = d.Bool("b")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = d.Bool("c")
	assert.False(t, ok)

	_, ok = d.Bool("d")
	assert.False(t, ok, "numbers are not explicit booleans")
}

func TestDocument_Docs(t *testing.T) {
	d := Document{"loans": []any{
		map[string]any{"type": "home"},
		"not an object",
		map[string]any{"type": "auto"},
	}}
	docs := d.Docs("loan_records", "loans")
	require.Len(t, docs, 2)
	assert.Equal(t, "home", docs[0].Str("type"))
}
