// Package ingest parses CRM site-visit exports (CSV and XLSX) into leads.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/estimate"
	"github.com/sells-group/leadscore-cli/internal/model"
)

// Options configures export parsing.
type Options struct {
	ProjectID string
	Registry  *model.FieldRegistry
	SheetName string // XLSX only; empty means first sheet
	Delimiter rune   // CSV only; default ','
}

// Result holds the parsed leads and the rows that were rejected.
type Result struct {
	Leads   []model.Lead
	Skipped []SkippedRow
}

// SkippedRow records why a source row did not become a lead.
type SkippedRow struct {
	RowNumber int // 1-based, header excluded
	Missing   []string
}

// ReadFile parses a CRM export, dispatching on the file extension.
func ReadFile(ctx context.Context, path string, opts Options) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, opts)
	case ".xlsx":
		return ReadXLSX(ctx, path, opts)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %s", filepath.Ext(path))
	}
}

// ReadCSV parses a CSV export. The first row is taken as the header.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv has no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}

	result := &Result{}
	rowNum := 0
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}

		rowNum++
		collect(result, rowToMap(header, record), rowNum, opts)
	}

	return result, nil
}

// ReadXLSX parses an XLSX export. The first row of the selected sheet is
// taken as the header.
func ReadXLSX(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var header []string
	rowNum := 0
	for i, row := range sheet.Rows {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: context cancelled")
		}

		cells := rowToStrings(row)
		if i == 0 {
			header = cells
			continue
		}

		rowNum++
		collect(result, rowToMap(header, cells), rowNum, opts)
	}

	if header == nil {
		return nil, eris.Errorf("ingest: sheet %q is empty", sheet.Name)
	}
	return result, nil
}

// collect resolves a raw row through the field registry and appends either a
// lead or a skip record.
func collect(result *Result, raw map[string]string, rowNum int, opts Options) {
	resolved := opts.Registry.ResolveRow(raw)
	if missing := opts.Registry.MissingRequired(resolved); len(missing) > 0 {
		zap.L().Warn("ingest: skipping row with missing required fields",
			zap.Int("row", rowNum),
			zap.Strings("missing", missing))
		result.Skipped = append(result.Skipped, SkippedRow{RowNumber: rowNum, Missing: missing})
		return
	}
	result.Leads = append(result.Leads, buildLead(raw, resolved, opts.ProjectID))
}

func buildLead(raw, resolved map[string]string, projectID string) model.Lead {
	rawJSON, _ := json.Marshal(raw)

	lead := model.Lead{
		ID:                resolved["id"],
		ProjectID:         projectID,
		Name:              resolved["name"],
		Phone:             resolved["phone"],
		Email:             resolved["email"],
		Project:           resolved["project"],
		Owner:             resolved["owner"],
		Source:            resolved["source"],
		LatestRevisitDate: resolved["latest_revisit_date"],
		Preference:        resolved["preference"],
		VisitNotes:        resolved["visit_notes"],
		ManagerRating:     resolved["manager_rating"],
		RawData:           rawJSON,
	}

	if v := resolved["budget"]; v != "" {
		lead.BudgetCr = estimate.ParseBudget(v)
	}
	if v := resolved["visit_date"]; v != "" {
		if t, ok := parseVisitDate(v); ok {
			lead.VisitDate = &t
		}
	}

	return lead
}

// visitDateLayouts covers the date formats seen in CRM exports.
var visitDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

func parseVisitDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func rowToMap(header, record []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			m[col] = record[i]
		}
	}
	return m
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
