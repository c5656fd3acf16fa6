package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT NOT NULL,
	project_id          TEXT NOT NULL,
	name                TEXT NOT NULL,
	phone               TEXT,
	email               TEXT,
	project             TEXT,
	owner               TEXT,
	source              TEXT,
	visit_date          DATETIME,
	latest_revisit_date TEXT,
	budget_cr           REAL,
	preference          TEXT,
	visit_notes         TEXT,
	manager_rating      TEXT,
	ai_rating           TEXT,
	raw_data            TEXT NOT NULL,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL,
	PRIMARY KEY (id, project_id)
);

CREATE TABLE IF NOT EXISTS enrichment_records (
	id                TEXT PRIMARY KEY,
	lead_id           TEXT NOT NULL,
	project_id        TEXT NOT NULL,
	status            TEXT NOT NULL,
	mql_rating        TEXT,
	credit_score      REAL,
	final_income_lacs REAL,
	designation       TEXT,
	employer          TEXT,
	raw_response      TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	UNIQUE (lead_id, project_id)
);

CREATE TABLE IF NOT EXISTS analysis_records (
	id                       TEXT PRIMARY KEY,
	lead_id                  TEXT NOT NULL,
	project_id               TEXT NOT NULL,
	kind                     TEXT NOT NULL,
	rating                   TEXT,
	insight                  TEXT,
	analysis                 TEXT,
	revisit_date_at_analysis TEXT,
	raw_response             TEXT,
	created_at               DATETIME NOT NULL,
	updated_at               DATETIME NOT NULL,
	UNIQUE (lead_id, project_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_leads_project ON leads(project_id);
CREATE INDEX IF NOT EXISTS idx_enrichment_project ON enrichment_records(project_id);
CREATE INDEX IF NOT EXISTS idx_analysis_project_kind ON analysis_records(project_id, kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, l := range leads {
		var visit any
		if l.VisitDate != nil {
			visit = l.VisitDate.UTC()
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO leads (
				id, project_id, name, phone, email, project, owner, source,
				visit_date, latest_revisit_date, budget_cr, preference,
				visit_notes, manager_rating, ai_rating, raw_data, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id, project_id) DO UPDATE SET
				name = excluded.name,
				phone = excluded.phone,
				email = excluded.email,
				project = excluded.project,
				owner = excluded.owner,
				source = excluded.source,
				visit_date = excluded.visit_date,
				latest_revisit_date = excluded.latest_revisit_date,
				budget_cr = excluded.budget_cr,
				preference = excluded.preference,
				visit_notes = excluded.visit_notes,
				manager_rating = excluded.manager_rating,
				raw_data = excluded.raw_data,
				updated_at = excluded.updated_at`,
			l.ID, l.ProjectID, l.Name, l.Phone, l.Email, l.Project, l.Owner, l.Source,
			visit, l.LatestRevisitDate, l.BudgetCr, l.Preference,
			l.VisitNotes, l.ManagerRating, l.AIRating, string(l.RawData), now, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert lead %s/%s", l.ID, l.ProjectID)
		}
	}
	return nil
}

func (s *SQLiteStore) GetLeads(ctx context.Context, projectID string, leadIDs []string) ([]model.Lead, error) {
	query := `
		SELECT id, project_id, name, phone, email, project, owner, source,
		       visit_date, latest_revisit_date, budget_cr, preference,
		       visit_notes, manager_rating, ai_rating, raw_data, created_at, updated_at
		FROM leads WHERE project_id = ?`
	args := []any{projectID}
	if len(leadIDs) > 0 {
		query += " AND id IN (" + placeholders(len(leadIDs)) + ")"
		for _, id := range leadIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		var (
			l                                     model.Lead
			phone, email, project, owner, source  sql.NullString
			revisit, preference, notes            sql.NullString
			managerRating, aiRating, raw          sql.NullString
			visit                                 sql.NullTime
			budget                                sql.NullFloat64
		)
		if err := rows.Scan(
			&l.ID, &l.ProjectID, &l.Name, &phone, &email, &project, &owner, &source,
			&visit, &revisit, &budget, &preference,
			&notes, &managerRating, &aiRating, &raw, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Phone = phone.String
		l.Email = email.String
		l.Project = project.String
		l.Owner = owner.String
		l.Source = source.String
		l.LatestRevisitDate = revisit.String
		l.BudgetCr = budget.Float64
		l.Preference = preference.String
		l.VisitNotes = notes.String
		l.ManagerRating = managerRating.String
		l.AIRating = aiRating.String
		if visit.Valid {
			t := visit.Time
			l.VisitDate = &t
		}
		if raw.Valid {
			l.RawData = []byte(raw.String)
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func (s *SQLiteStore) SetAIRating(ctx context.Context, key model.LeadKey, rating string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET ai_rating = ?, updated_at = ? WHERE id = ? AND project_id = ?`,
		rating, time.Now().UTC(), key.LeadID, key.ProjectID,
	)
	return eris.Wrapf(err, "sqlite: set ai rating %s/%s", key.LeadID, key.ProjectID)
}

func (s *SQLiteStore) UpsertEnrichment(ctx context.Context, rec model.EnrichmentRecord) error {
	now := time.Now().UTC()
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrichment_records (
			id, lead_id, project_id, status, mql_rating, credit_score,
			final_income_lacs, designation, employer, raw_response, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (lead_id, project_id) DO UPDATE SET
			status = excluded.status,
			mql_rating = excluded.mql_rating,
			credit_score = excluded.credit_score,
			final_income_lacs = excluded.final_income_lacs,
			designation = excluded.designation,
			employer = excluded.employer,
			raw_response = excluded.raw_response,
			updated_at = excluded.updated_at`,
		id, rec.LeadID, rec.ProjectID, string(rec.Status), rec.MQLRating, rec.CreditScore,
		rec.FinalIncomeLac, rec.Designation, rec.Employer, string(rec.RawResponse), now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert enrichment %s/%s", rec.LeadID, rec.ProjectID)
}

func (s *SQLiteStore) GetEnrichments(ctx context.Context, projectID string, leadIDs []string) ([]model.EnrichmentRecord, error) {
	query := `
		SELECT id, lead_id, project_id, status, mql_rating, credit_score,
		       final_income_lacs, designation, employer, raw_response, created_at, updated_at
		FROM enrichment_records WHERE project_id = ?`
	args := []any{projectID}
	if len(leadIDs) > 0 {
		query += " AND lead_id IN (" + placeholders(len(leadIDs)) + ")"
		for _, id := range leadIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query enrichments")
	}
	defer rows.Close()

	var out []model.EnrichmentRecord
	for rows.Next() {
		var (
			rec                               model.EnrichmentRecord
			status                            string
			mql, designation, employer, raw   sql.NullString
			score, income                     sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID, &rec.LeadID, &rec.ProjectID, &status, &mql, &score,
			&income, &designation, &employer, &raw, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan enrichment")
		}
		rec.Status = model.EnrichmentStatus(status)
		rec.MQLRating = mql.String
		rec.CreditScore = score.Float64
		rec.FinalIncomeLac = income.Float64
		rec.Designation = designation.String
		rec.Employer = employer.String
		if raw.Valid {
			rec.RawResponse = []byte(raw.String)
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate enrichments")
}

func (s *SQLiteStore) UpsertAnalysis(ctx context.Context, rec model.AnalysisRecord) error {
	now := time.Now().UTC()
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	analysisJSON, err := model.MarshalAnalysis(rec.Analysis)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_records (
			id, lead_id, project_id, kind, rating, insight, analysis,
			revisit_date_at_analysis, raw_response, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (lead_id, project_id, kind) DO UPDATE SET
			rating = excluded.rating,
			insight = excluded.insight,
			analysis = excluded.analysis,
			revisit_date_at_analysis = excluded.revisit_date_at_analysis,
			raw_response = excluded.raw_response,
			updated_at = excluded.updated_at`,
		id, rec.LeadID, rec.ProjectID, string(rec.Kind), rec.Rating, rec.Insight, string(analysisJSON),
		rec.RevisitDateAtAnalysis, string(rec.RawResponse), now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert analysis %s/%s", rec.LeadID, rec.ProjectID)
}

func (s *SQLiteStore) GetAnalyses(ctx context.Context, projectID string, kind model.AnalysisKind, leadIDs []string) ([]model.AnalysisRecord, error) {
	query := `
		SELECT id, lead_id, project_id, kind, rating, insight, analysis,
		       revisit_date_at_analysis, raw_response, created_at, updated_at
		FROM analysis_records WHERE project_id = ? AND kind = ?`
	args := []any{projectID, string(kind)}
	if len(leadIDs) > 0 {
		query += " AND lead_id IN (" + placeholders(len(leadIDs)) + ")"
		for _, id := range leadIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query analyses")
	}
	defer rows.Close()

	var out []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate analyses")
}

func scanAnalysis(rows *sql.Rows) (model.AnalysisRecord, error) {
	var (
		rec                            model.AnalysisRecord
		kind                           string
		rating, insight, analysisJSON  sql.NullString
		revisit, raw                   sql.NullString
	)
	if err := rows.Scan(
		&rec.ID, &rec.LeadID, &rec.ProjectID, &kind, &rating, &insight, &analysisJSON,
		&revisit, &raw, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return rec, eris.Wrap(err, "sqlite: scan analysis")
	}
	rec.Kind = model.AnalysisKind(kind)
	rec.Rating = rating.String
	rec.Insight = insight.String
	rec.RevisitDateAtAnalysis = revisit.String
	if raw.Valid {
		rec.RawResponse = []byte(raw.String)
	}
	if analysisJSON.Valid && analysisJSON.String != "" {
		var a model.LeadAnalysis
		if err := unmarshalAnalysis(analysisJSON.String, &a); err == nil {
			rec.Analysis = &a
		}
	}
	return rec, nil
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, key model.LeadKey, kind model.AnalysisKind) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_records WHERE lead_id = ? AND project_id = ? AND kind = ?`,
		key.LeadID, key.ProjectID, string(kind),
	)
	return eris.Wrapf(err, "sqlite: delete analysis %s/%s", key.LeadID, key.ProjectID)
}

// placeholders returns "?, ?, ..." for an IN clause of n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
