package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_prospect_by_domain": `SELECT ` + strings.Join(prospectColumns, ", ") + ` FROM prospects WHERE domain = $1 ORDER BY created_at ASC LIMIT 1`,
	"get_job":                `SELECT id, job_type, params, status, result, error_message, created_at, started_at, completed_at FROM jobs WHERE id = $1`,
	"append_send_log":        `INSERT INTO send_log (id, prospect_id, recipient, subject, body, thread_id, sequence_index, provider_message_id, sent_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id                  TEXT PRIMARY KEY,
	domain              TEXT NOT NULL,
	page_url            TEXT NOT NULL DEFAULT '',
	name                TEXT NOT NULL DEFAULT '',
	contact_email       TEXT NOT NULL DEFAULT '',
	contact_method      TEXT NOT NULL DEFAULT '',
	confidence          DOUBLE PRECISION NOT NULL DEFAULT 0,
	intent              TEXT NOT NULL DEFAULT '',
	intent_confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
	discovery_status    TEXT NOT NULL DEFAULT 'new',
	scrape_status       TEXT NOT NULL DEFAULT 'discovered',
	approval_status     TEXT NOT NULL DEFAULT 'pending',
	verification_status TEXT NOT NULL DEFAULT 'unverified',
	draft_status        TEXT NOT NULL DEFAULT 'pending',
	send_status         TEXT NOT NULL DEFAULT 'pending',
	stage               TEXT NOT NULL DEFAULT 'discovered',
	draft_subject       TEXT NOT NULL DEFAULT '',
	draft_body          TEXT NOT NULL DEFAULT '',
	thread_id           TEXT NOT NULL DEFAULT '',
	sequence_index      INTEGER NOT NULL DEFAULT 0,
	followups_sent      INTEGER NOT NULL DEFAULT 0,
	discovery_raw       JSONB,
	enrichment_raw      JSONB,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_sent           TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	job_type      TEXT NOT NULL,
	params        JSONB NOT NULL DEFAULT '{}',
	status        TEXT NOT NULL DEFAULT 'pending',
	result        JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS discovery_queries (
	id                TEXT PRIMARY KEY,
	job_id            TEXT NOT NULL REFERENCES jobs(id),
	keyword           TEXT NOT NULL,
	location          TEXT NOT NULL,
	category          TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	results_found     INTEGER NOT NULL DEFAULT 0,
	results_duplicate INTEGER NOT NULL DEFAULT 0,
	results_existing  INTEGER NOT NULL DEFAULT 0,
	results_saved     INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS send_log (
	id                  TEXT PRIMARY KEY,
	prospect_id         TEXT NOT NULL REFERENCES prospects(id),
	recipient           TEXT NOT NULL,
	subject             TEXT NOT NULL,
	body                TEXT NOT NULL,
	thread_id           TEXT NOT NULL DEFAULT '',
	sequence_index      INTEGER NOT NULL DEFAULT 0,
	provider_message_id TEXT NOT NULL DEFAULT '',
	sent_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prospects_stage ON prospects(stage);
CREATE INDEX IF NOT EXISTS idx_prospects_scrape_status ON prospects(scrape_status);
CREATE INDEX IF NOT EXISTS idx_prospects_send_status ON prospects(send_status);
CREATE INDEX IF NOT EXISTS idx_prospects_domain ON prospects(domain);
CREATE INDEX IF NOT EXISTS idx_prospects_domain_fold ON prospects(lower(domain));
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_queries_job_id ON discovery_queries(job_id);
CREATE INDEX IF NOT EXISTS idx_send_log_prospect_id ON send_log(prospect_id);
CREATE INDEX IF NOT EXISTS idx_send_log_thread_id ON send_log(thread_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}

	if _, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return eris.Wrap(err, "postgres: create schema_version")
	}
	var version int
	err := s.pool.QueryRow(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = s.pool.Exec(ctx,
			`INSERT INTO schema_version (version) VALUES ($1)`, schemaVersion)
		return eris.Wrap(err, "postgres: record schema version")
	case err != nil:
		return eris.Wrap(err, "postgres: read schema version")
	case version != schemaVersion:
		return eris.Errorf("postgres: schema version %d, binary expects %d", version, schemaVersion)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Prospects

func (s *PostgresStore) CreateProspect(ctx context.Context, p *model.Prospect) error {
	_, err := s.pool.Exec(ctx, insertProspectSQL("$"), prospectArgs(p)...)
	return eris.Wrapf(err, "postgres: insert prospect %s", p.Domain)
}

func (s *PostgresStore) SaveProspect(ctx context.Context, p *model.Prospect) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE prospects SET
			domain = $1, page_url = $2, name = $3,
			contact_email = $4, contact_method = $5, confidence = $6,
			intent = $7, intent_confidence = $8,
			discovery_status = $9, scrape_status = $10, approval_status = $11,
			verification_status = $12, draft_status = $13, send_status = $14, stage = $15,
			draft_subject = $16, draft_body = $17,
			thread_id = $18, sequence_index = $19, followups_sent = $20,
			discovery_raw = $21, enrichment_raw = $22,
			updated_at = $23, last_sent = $24
		WHERE id = $25`,
		p.Domain, p.PageURL, p.Name,
		p.ContactEmail, string(p.ContactMethod), p.Confidence,
		string(p.Intent), p.IntentConfidence,
		string(p.DiscoveryStatus), string(p.ScrapeStatus), string(p.ApprovalStatus),
		string(p.VerificationStatus), string(p.DraftStatus), string(p.SendStatus), string(p.Stage),
		p.DraftSubject, p.DraftBody,
		p.ThreadID, p.SequenceIndex, p.FollowupsSent,
		nullableRaw(p.DiscoveryRaw), nullableRaw(p.EnrichmentRaw),
		p.UpdatedAt, p.LastSent,
		p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save prospect %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("prospect not found: %s", p.ID)
	}
	return nil
}

func (s *PostgresStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects WHERE id = $1`, id)
	p, err := pgxScanProspect(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("prospect not found: %s", id)
	}
	return p, err
}

func (s *PostgresStore) GetProspectByDomain(ctx context.Context, domain string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects WHERE domain = $1 ORDER BY created_at ASC LIMIT 1`,
		model.NormalizeDomain(domain))
	p, err := pgxScanProspect(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *PostgresStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error) {
	query := `SELECT ` + strings.Join(prospectColumns, ", ") + ` FROM prospects WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Stage != "" {
		query += fmt.Sprintf(` AND stage = $%d`, argIdx)
		args = append(args, string(filter.Stage))
		argIdx++
	}
	if filter.ScrapeStatus != "" {
		query += fmt.Sprintf(` AND scrape_status = $%d`, argIdx)
		args = append(args, string(filter.ScrapeStatus))
		argIdx++
	}
	if filter.SendStatus != "" {
		query += fmt.Sprintf(` AND send_status = $%d`, argIdx)
		args = append(args, string(filter.SendStatus))
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, argIdx)
		args = append(args, model.NormalizeDomain(filter.Domain))
		argIdx++
	}
	if filter.ContactEmail != "" {
		query += fmt.Sprintf(` AND LOWER(contact_email) = LOWER($%d)`, argIdx)
		args = append(args, filter.ContactEmail)
		argIdx++
	}
	if filter.HasEmail != nil {
		if *filter.HasEmail {
			query += ` AND contact_email != ''`
		} else {
			query += ` AND contact_email = ''`
		}
	}
	if len(filter.IDs) > 0 {
		query += fmt.Sprintf(` AND id = ANY($%d)`, argIdx)
		args = append(args, filter.IDs)
		argIdx++
	}
	query += ` ORDER BY created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := pgxScanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list prospects iterate")
}

func (s *PostgresStore) InsertProspects(ctx context.Context, prospects []model.Prospect) (int, error) {
	if len(prospects) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(prospects))
	for i := range prospects {
		rows[i] = prospectArgs(&prospects[i])
	}

	// Existing rows must keep their state; only truly new domains land.
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:          "prospects",
		Columns:        prospectColumns,
		SkipExistingOn: []string{"domain"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk insert prospects")
	}
	return int(n), nil
}

func (s *PostgresStore) ListDomainDuplicates(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects
		 WHERE lower(domain) IN (
			SELECT lower(domain) FROM prospects GROUP BY lower(domain) HAVING COUNT(*) > 1
		 )
		 ORDER BY lower(domain), created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list domain duplicates")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := pgxScanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list domain duplicates iterate")
}

func (s *PostgresStore) DeleteProspects(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM prospects WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete prospects")
	}
	return int(tag.RowsAffected()), nil
}

// Jobs

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.Job) error {
	params := job.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, job_type, params, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		job.ID, string(job.Type), []byte(params), string(job.Status), job.CreatedAt)
	return eris.Wrapf(err, "postgres: insert job %s", job.ID)
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	query := `UPDATE jobs SET status = $1, error_message = $2 WHERE id = $3`
	args := []any{string(status), errMsg, jobID}
	if status == model.JobRunning {
		query = `UPDATE jobs SET status = $1, error_message = $2, started_at = $3 WHERE id = $4`
		args = []any{string(status), errMsg, time.Now().UTC(), jobID}
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, result *model.JobResult, errMsg string) error {
	var resultJSON []byte
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal job result")
		}
		resultJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, result = $2, error_message = $3, completed_at = $4 WHERE id = $5`,
		string(status), resultJSON, errMsg, time.Now().UTC(), jobID)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, job_type, params, status, result, error_message, created_at, started_at, completed_at
		 FROM jobs WHERE id = $1`, jobID)
	j, err := pgxScanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("job not found: %s", jobID)
	}
	return j, err
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, job_type, params, status, result, error_message, created_at, started_at, completed_at
	          FROM jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Type != "" {
		query += fmt.Sprintf(` AND job_type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		j, err := pgxScanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

// Discovery queries

func (s *PostgresStore) CreateQuery(ctx context.Context, q *model.DiscoveryQuery) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO discovery_queries (id, job_id, keyword, location, category, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.JobID, q.Keyword, q.Location, q.Category, string(q.Status), q.CreatedAt)
	return eris.Wrapf(err, "postgres: insert query %s", q.ID)
}

func (s *PostgresStore) CompleteQuery(ctx context.Context, q *model.DiscoveryQuery) error {
	now := time.Now().UTC()
	q.CompletedAt = &now
	tag, err := s.pool.Exec(ctx,
		`UPDATE discovery_queries SET
			status = $1, results_found = $2, results_duplicate = $3,
			results_existing = $4, results_saved = $5, completed_at = $6
		 WHERE id = $7`,
		string(q.Status), q.ResultsFound, q.ResultsDupe,
		q.ResultsExisting, q.ResultsSaved, now, q.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete query %s", q.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("query not found: %s", q.ID)
	}
	return nil
}

func (s *PostgresStore) ListQueries(ctx context.Context, jobID string) ([]model.DiscoveryQuery, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, keyword, location, category, status,
		        results_found, results_duplicate, results_existing, results_saved,
		        created_at, completed_at
		 FROM discovery_queries WHERE job_id = $1 ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list queries")
	}
	defer rows.Close()

	var out []model.DiscoveryQuery
	for rows.Next() {
		var q model.DiscoveryQuery
		if err := rows.Scan(&q.ID, &q.JobID, &q.Keyword, &q.Location, &q.Category, &q.Status,
			&q.ResultsFound, &q.ResultsDupe, &q.ResultsExisting, &q.ResultsSaved,
			&q.CreatedAt, &q.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan query")
		}
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list queries iterate")
}

// Send log

func (s *PostgresStore) AppendSendLog(ctx context.Context, e *model.SendLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO send_log (id, prospect_id, recipient, subject, body, thread_id, sequence_index, provider_message_id, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ProspectID, e.Recipient, e.Subject, e.Body,
		e.ThreadID, e.SequenceIndex, e.ProviderMessageID, e.SentAt)
	return eris.Wrapf(err, "postgres: append send log %s", e.ProspectID)
}

func (s *PostgresStore) ListSendLog(ctx context.Context, prospectID string) ([]model.SendLogEntry, error) {
	return s.querySendLog(ctx,
		`SELECT id, prospect_id, recipient, subject, body, thread_id, sequence_index, provider_message_id, sent_at
		 FROM send_log WHERE prospect_id = $1 ORDER BY sent_at ASC`, prospectID)
}

func (s *PostgresStore) ListSendLogByDomain(ctx context.Context, domain string) ([]model.SendLogEntry, error) {
	return s.querySendLog(ctx,
		`SELECT l.id, l.prospect_id, l.recipient, l.subject, l.body, l.thread_id, l.sequence_index, l.provider_message_id, l.sent_at
		 FROM send_log l JOIN prospects p ON p.id = l.prospect_id
		 WHERE p.domain = $1 ORDER BY l.sent_at ASC`, model.NormalizeDomain(domain))
}

func (s *PostgresStore) querySendLog(ctx context.Context, query string, arg any) ([]model.SendLogEntry, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list send log")
	}
	defer rows.Close()

	var out []model.SendLogEntry
	for rows.Next() {
		var e model.SendLogEntry
		if err := rows.Scan(&e.ID, &e.ProspectID, &e.Recipient, &e.Subject, &e.Body,
			&e.ThreadID, &e.SequenceIndex, &e.ProviderMessageID, &e.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan send log")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list send log iterate")
}

// scans

type pgxScannable interface {
	Scan(dest ...any) error
}

func pgxScanProspect(row pgxScannable) (*model.Prospect, error) {
	var p model.Prospect
	var discoveryRaw, enrichmentRaw []byte

	err := row.Scan(
		&p.ID, &p.Domain, &p.PageURL, &p.Name,
		&p.ContactEmail, &p.ContactMethod, &p.Confidence,
		&p.Intent, &p.IntentConfidence,
		&p.DiscoveryStatus, &p.ScrapeStatus, &p.ApprovalStatus,
		&p.VerificationStatus, &p.DraftStatus, &p.SendStatus, &p.Stage,
		&p.DraftSubject, &p.DraftBody,
		&p.ThreadID, &p.SequenceIndex, &p.FollowupsSent,
		&discoveryRaw, &enrichmentRaw,
		&p.CreatedAt, &p.UpdatedAt, &p.LastSent,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan prospect")
	}

	if len(discoveryRaw) > 0 {
		p.DiscoveryRaw = json.RawMessage(discoveryRaw)
	}
	if len(enrichmentRaw) > 0 {
		p.EnrichmentRaw = json.RawMessage(enrichmentRaw)
	}
	return &p, nil
}

func pgxScanJob(row pgxScannable) (*model.Job, error) {
	var j model.Job
	var params, result []byte

	err := row.Scan(&j.ID, &j.Type, &params, &j.Status, &result,
		&j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}

	j.Params = json.RawMessage(params)
	if len(result) > 0 {
		j.Result = &model.JobResult{}
		if err := json.Unmarshal(result, j.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal job result")
		}
	}
	return &j, nil
}
