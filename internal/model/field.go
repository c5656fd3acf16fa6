package model

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldMapping maps one logical lead field to the ordered list of column
// names it may appear under in a CRM export. Resolution happens once at
// ingestion; nothing downstream ever guesses column names again.
type FieldMapping struct {
	Key        string   `json:"key" yaml:"key"`
	Candidates []string `json:"candidates" yaml:"candidates"`
	Required   bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// FieldRegistry is an indexed collection of field mappings with normalized
// candidate lookup.
type FieldRegistry struct {
	Fields []FieldMapping

	byKey       map[string]*FieldMapping
	byCandidate map[string]*FieldMapping
}

// NewFieldRegistry indexes the given mappings. Candidate names are matched
// case-insensitively with surrounding whitespace and underscores collapsed.
func NewFieldRegistry(fields []FieldMapping) *FieldRegistry {
	r := &FieldRegistry{
		Fields:      fields,
		byKey:       make(map[string]*FieldMapping, len(fields)),
		byCandidate: make(map[string]*FieldMapping),
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		r.byKey[f.Key] = f
		for _, c := range f.Candidates {
			r.byCandidate[normalizeHeader(c)] = f
		}
	}
	return r
}

// LoadFieldRegistry reads a YAML mapping table from disk. An empty path
// returns the built-in default mapping.
func LoadFieldRegistry(path string) (*FieldRegistry, error) {
	if path == "" {
		return NewFieldRegistry(DefaultFieldMappings()), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read field mapping %s", path)
	}
	var doc struct {
		Fields []FieldMapping `yaml:"fields"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "model: parse field mapping %s", path)
	}
	if len(doc.Fields) == 0 {
		return nil, eris.Errorf("model: field mapping %s defines no fields", path)
	}
	return NewFieldRegistry(doc.Fields), nil
}

// ByKey returns the mapping for a logical field key, or nil.
func (r *FieldRegistry) ByKey(key string) *FieldMapping {
	return r.byKey[key]
}

// ResolveRow projects a raw CRM row onto logical field keys. For each
// mapped field the first candidate column carrying a non-empty value wins.
// Unmapped source columns are ignored, not errors.
func (r *FieldRegistry) ResolveRow(row map[string]string) map[string]string {
	normalized := make(map[string]string, len(row))
	for col, val := range row {
		normalized[normalizeHeader(col)] = strings.TrimSpace(val)
	}

	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		for _, c := range f.Candidates {
			if v, ok := normalized[normalizeHeader(c)]; ok && v != "" {
				out[f.Key] = v
				break
			}
		}
	}
	return out
}

// MissingRequired returns the required field keys absent from a resolved row.
func (r *FieldRegistry) MissingRequired(resolved map[string]string) []string {
	var missing []string
	for _, f := range r.Fields {
		if f.Required && resolved[f.Key] == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// DefaultFieldMappings covers the column-name variants observed across CRM
// exports to date. Teams with bespoke exports ship their own YAML table.
func DefaultFieldMappings() []FieldMapping {
	return []FieldMapping{
		{Key: "id", Candidates: []string{"Lead ID", "LeadId", "Opportunity ID", "Id"}, Required: true},
		{Key: "name", Candidates: []string{"Name", "Customer Name", "Lead Name", "Full Name"}, Required: true},
		{Key: "phone", Candidates: []string{"Phone", "Mobile", "Mobile No", "Contact Number", "Phone Number"}},
		{Key: "email", Candidates: []string{"Email", "Email ID", "Email Address"}},
		{Key: "project", Candidates: []string{"Project", "Project Name", "Campaign"}},
		{Key: "owner", Candidates: []string{"Owner", "Lead Owner", "Sales Manager", "Assigned To"}},
		{Key: "source", Candidates: []string{"Source", "Lead Source", "Channel"}},
		{Key: "visit_date", Candidates: []string{"Visit Date", "Site Visit Date", "First Visit"}},
		{Key: "latest_revisit_date", Candidates: []string{"Latest Revisit Date", "Revisit Date", "Last Revisit"}},
		{Key: "budget", Candidates: []string{"Budget", "Budget (Cr)", "Budget Cr"}},
		{Key: "preference", Candidates: []string{"Preference", "Unit Preference", "Configuration"}},
		{Key: "manager_rating", Candidates: []string{"Rating", "Manager Rating", "Lead Rating", "Classification"}},
		{Key: "visit_notes", Candidates: []string{"Visit Notes", "Remarks", "Notes", "Comments"}},
	}
}
