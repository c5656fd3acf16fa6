package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_UpsertEnrichment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enrichment_records`).
		WithArgs(
			pgxmock.AnyArg(), "L1", "P1", "SUCCESS", "P0", 720.0,
			24.0, "Director", "Acme", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertEnrichment(context.Background(), model.EnrichmentRecord{
		LeadID:         "L1",
		ProjectID:      "P1",
		Status:         model.EnrichmentSuccess,
		MQLRating:      "P0",
		CreditScore:    720,
		FinalIncomeLac: 24,
		Designation:    "Director",
		Employer:       "Acme",
		RawResponse:    []byte(`{}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetEnrichments_EmptyResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM enrichment_records WHERE project_id = \$1`).
		WithArgs("P1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "lead_id", "project_id", "status", "mql_rating", "credit_score",
			"final_income_lacs", "designation", "employer", "raw_response", "created_at", "updated_at",
		}))

	recs, err := s.GetEnrichments(context.Background(), "P1", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetEnrichments_InFilterUsesAny(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM enrichment_records WHERE project_id = \$1 AND lead_id = ANY\(\$2\)`).
		WithArgs("P1", []string{"L1", "L2"}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "lead_id", "project_id", "status", "mql_rating", "credit_score",
			"final_income_lacs", "designation", "employer", "raw_response", "created_at", "updated_at",
		}))

	_, err := s.GetEnrichments(context.Background(), "P1", []string{"L1", "L2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM analysis_records WHERE lead_id = \$1 AND project_id = \$2 AND kind = \$3`).
		WithArgs("L1", "P1", "lead_analysis").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := s.DeleteAnalysis(context.Background(), model.LeadKey{LeadID: "L1", ProjectID: "P1"}, model.KindLeadAnalysis)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetAIRating(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET ai_rating = \$1`).
		WithArgs("Hot", pgxmock.AnyArg(), "L1", "P1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SetAIRating(context.Background(), model.LeadKey{LeadID: "L1", ProjectID: "P1"}, "Hot")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Nil(t, nullableJSON([]byte("  ")))
	assert.Equal(t, `{"a":1}`, nullableJSON([]byte(`{"a":1}`)))
}
