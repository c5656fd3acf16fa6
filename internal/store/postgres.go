package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool, for teams sharing one
// database across dashboards.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                  TEXT NOT NULL,
	project_id          TEXT NOT NULL,
	name                TEXT NOT NULL,
	phone               TEXT,
	email               TEXT,
	project             TEXT,
	owner               TEXT,
	source              TEXT,
	visit_date          TIMESTAMPTZ,
	latest_revisit_date TEXT,
	budget_cr           DOUBLE PRECISION,
	preference          TEXT,
	visit_notes         TEXT,
	manager_rating      TEXT,
	ai_rating           TEXT,
	raw_data            JSONB NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (id, project_id)
);

CREATE TABLE IF NOT EXISTS enrichment_records (
	id                TEXT PRIMARY KEY,
	lead_id           TEXT NOT NULL,
	project_id        TEXT NOT NULL,
	status            TEXT NOT NULL,
	mql_rating        TEXT,
	credit_score      DOUBLE PRECISION,
	final_income_lacs DOUBLE PRECISION,
	designation       TEXT,
	employer          TEXT,
	raw_response      JSONB,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (lead_id, project_id)
);

CREATE TABLE IF NOT EXISTS analysis_records (
	id                       TEXT PRIMARY KEY,
	lead_id                  TEXT NOT NULL,
	project_id               TEXT NOT NULL,
	kind                     TEXT NOT NULL,
	rating                   TEXT,
	insight                  TEXT,
	analysis                 JSONB,
	revisit_date_at_analysis TEXT,
	raw_response             JSONB,
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL,
	UNIQUE (lead_id, project_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_leads_project ON leads(project_id);
CREATE INDEX IF NOT EXISTS idx_enrichment_project ON enrichment_records(project_id);
CREATE INDEX IF NOT EXISTS idx_analysis_project_kind ON analysis_records(project_id, kind);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, l := range leads {
		var visit any
		if l.VisitDate != nil {
			visit = l.VisitDate.UTC()
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO leads (
				id, project_id, name, phone, email, project, owner, source,
				visit_date, latest_revisit_date, budget_cr, preference,
				visit_notes, manager_rating, ai_rating, raw_data, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
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
			return eris.Wrapf(err, "postgres: upsert lead %s/%s", l.ID, l.ProjectID)
		}
	}
	return nil
}

func (s *PostgresStore) GetLeads(ctx context.Context, projectID string, leadIDs []string) ([]model.Lead, error) {
	query := `
		SELECT id, project_id, name, phone, email, project, owner, source,
		       visit_date, latest_revisit_date, budget_cr, preference,
		       visit_notes, manager_rating, ai_rating, raw_data::text, created_at, updated_at
		FROM leads WHERE project_id = $1`
	args := []any{projectID}
	if len(leadIDs) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args)+1)
		args = append(args, leadIDs)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		var (
			l                                    model.Lead
			phone, email, project, owner, source sql.NullString
			revisit, preference, notes           sql.NullString
			managerRating, aiRating, raw         sql.NullString
			visit                                sql.NullTime
			budget                               sql.NullFloat64
		)
		if err := rows.Scan(
			&l.ID, &l.ProjectID, &l.Name, &phone, &email, &project, &owner, &source,
			&visit, &revisit, &budget, &preference,
			&notes, &managerRating, &aiRating, &raw, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
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
	return out, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func (s *PostgresStore) SetAIRating(ctx context.Context, key model.LeadKey, rating string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE leads SET ai_rating = $1, updated_at = $2 WHERE id = $3 AND project_id = $4`,
		rating, time.Now().UTC(), key.LeadID, key.ProjectID,
	)
	return eris.Wrapf(err, "postgres: set ai rating %s/%s", key.LeadID, key.ProjectID)
}

func (s *PostgresStore) UpsertEnrichment(ctx context.Context, rec model.EnrichmentRecord) error {
	now := time.Now().UTC()
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrichment_records (
			id, lead_id, project_id, status, mql_rating, credit_score,
			final_income_lacs, designation, employer, raw_response, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
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
		rec.FinalIncomeLac, rec.Designation, rec.Employer, nullableJSON(rec.RawResponse), now, now,
	)
	return eris.Wrapf(err, "postgres: upsert enrichment %s/%s", rec.LeadID, rec.ProjectID)
}

func (s *PostgresStore) GetEnrichments(ctx context.Context, projectID string, leadIDs []string) ([]model.EnrichmentRecord, error) {
	query := `
		SELECT id, lead_id, project_id, status, mql_rating, credit_score,
		       final_income_lacs, designation, employer, raw_response::text, created_at, updated_at
		FROM enrichment_records WHERE project_id = $1`
	args := []any{projectID}
	if len(leadIDs) > 0 {
		query += fmt.Sprintf(" AND lead_id = ANY($%d)", len(args)+1)
		args = append(args, leadIDs)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query enrichments")
	}
	defer rows.Close()

	var out []model.EnrichmentRecord
	for rows.Next() {
		var (
			rec                             model.EnrichmentRecord
			status                          string
			mql, designation, employer, raw sql.NullString
			score, income                   sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID, &rec.LeadID, &rec.ProjectID, &status, &mql, &score,
			&income, &designation, &employer, &raw, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan enrichment")
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
	return out, eris.Wrap(rows.Err(), "postgres: iterate enrichments")
}

func (s *PostgresStore) UpsertAnalysis(ctx context.Context, rec model.AnalysisRecord) error {
	now := time.Now().UTC()
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	analysisJSON, err := model.MarshalAnalysis(rec.Analysis)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal analysis")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analysis_records (
			id, lead_id, project_id, kind, rating, insight, analysis,
			revisit_date_at_analysis, raw_response, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (lead_id, project_id, kind) DO UPDATE SET
			rating = excluded.rating,
			insight = excluded.insight,
			analysis = excluded.analysis,
			revisit_date_at_analysis = excluded.revisit_date_at_analysis,
			raw_response = excluded.raw_response,
			updated_at = excluded.updated_at`,
		id, rec.LeadID, rec.ProjectID, string(rec.Kind), rec.Rating, rec.Insight, nullableJSON(analysisJSON),
		rec.RevisitDateAtAnalysis, nullableJSON(rec.RawResponse), now, now,
	)
	return eris.Wrapf(err, "postgres: upsert analysis %s/%s", rec.LeadID, rec.ProjectID)
}

func (s *PostgresStore) GetAnalyses(ctx context.Context, projectID string, kind model.AnalysisKind, leadIDs []string) ([]model.AnalysisRecord, error) {
	query := `
		SELECT id, lead_id, project_id, kind, rating, insight, analysis::text,
		       revisit_date_at_analysis, raw_response::text, created_at, updated_at
		FROM analysis_records WHERE project_id = $1 AND kind = $2`
	args := []any{projectID, string(kind)}
	if len(leadIDs) > 0 {
		query += fmt.Sprintf(" AND lead_id = ANY($%d)", len(args)+1)
		args = append(args, leadIDs)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query analyses")
	}
	defer rows.Close()

	var out []model.AnalysisRecord
	for rows.Next() {
		var (
			rec                           model.AnalysisRecord
			kindCol                       string
			rating, insight, analysisJSON sql.NullString
			revisit, raw                  sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.LeadID, &rec.ProjectID, &kindCol, &rating, &insight, &analysisJSON,
			&revisit, &raw, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		rec.Kind = model.AnalysisKind(kindCol)
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
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate analyses")
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, key model.LeadKey, kind model.AnalysisKind) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM analysis_records WHERE lead_id = $1 AND project_id = $2 AND kind = $3`,
		key.LeadID, key.ProjectID, string(kind),
	)
	return eris.Wrapf(err, "postgres: delete analysis %s/%s", key.LeadID, key.ProjectID)
}

// nullableJSON maps empty blobs to NULL so JSONB columns never see "".
func nullableJSON(raw []byte) any {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	return string(raw)
}
