package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id                  TEXT PRIMARY KEY,
	domain              TEXT NOT NULL,
	page_url            TEXT NOT NULL DEFAULT '',
	name                TEXT NOT NULL DEFAULT '',
	contact_email       TEXT NOT NULL DEFAULT '',
	contact_method      TEXT NOT NULL DEFAULT '',
	confidence          REAL NOT NULL DEFAULT 0,
	intent              TEXT NOT NULL DEFAULT '',
	intent_confidence   REAL NOT NULL DEFAULT 0,
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
	discovery_raw       TEXT,
	enrichment_raw      TEXT,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	last_sent           DATETIME
);

CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	job_type      TEXT NOT NULL,
	params        TEXT NOT NULL DEFAULT '{}',
	status        TEXT NOT NULL DEFAULT 'pending',
	result        TEXT,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	started_at    DATETIME,
	completed_at  DATETIME
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
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at      DATETIME
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
	sent_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prospects_domain ON prospects(domain);
CREATE INDEX IF NOT EXISTS idx_prospects_stage ON prospects(stage);
CREATE INDEX IF NOT EXISTS idx_prospects_scrape_status ON prospects(scrape_status);
CREATE INDEX IF NOT EXISTS idx_prospects_send_status ON prospects(send_status);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_queries_job_id ON discovery_queries(job_id);
CREATE INDEX IF NOT EXISTS idx_send_log_prospect_id ON send_log(prospect_id);
CREATE INDEX IF NOT EXISTS idx_send_log_thread_id ON send_log(thread_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return eris.Wrap(err, "sqlite: create schema_version")
	}
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
		return eris.Wrap(err, "sqlite: record schema version")
	case err != nil:
		return eris.Wrap(err, "sqlite: read schema version")
	case version != schemaVersion:
		return eris.Errorf("sqlite: schema version %d, binary expects %d", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Prospects

func (s *SQLiteStore) CreateProspect(ctx context.Context, p *model.Prospect) error {
	_, err := s.db.ExecContext(ctx,
		insertProspectSQL("?"),
		prospectArgs(p)...,
	)
	return eris.Wrapf(err, "sqlite: insert prospect %s", p.Domain)
}

func (s *SQLiteStore) SaveProspect(ctx context.Context, p *model.Prospect) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE prospects SET
			domain = ?, page_url = ?, name = ?,
			contact_email = ?, contact_method = ?, confidence = ?,
			intent = ?, intent_confidence = ?,
			discovery_status = ?, scrape_status = ?, approval_status = ?,
			verification_status = ?, draft_status = ?, send_status = ?, stage = ?,
			draft_subject = ?, draft_body = ?,
			thread_id = ?, sequence_index = ?, followups_sent = ?,
			discovery_raw = ?, enrichment_raw = ?,
			updated_at = ?, last_sent = ?
		WHERE id = ?`,
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
		return eris.Wrapf(err, "sqlite: save prospect %s", p.ID)
	}
	return checkRowsAffected(res, "prospect", p.ID)
}

func (s *SQLiteStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects WHERE id = ?`, id)
	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("prospect not found: %s", id)
	}
	return p, err
}

func (s *SQLiteStore) GetProspectByDomain(ctx context.Context, domain string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects WHERE domain = ? ORDER BY created_at ASC LIMIT 1`,
		model.NormalizeDomain(domain))
	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s *SQLiteStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error) {
	query := `SELECT ` + strings.Join(prospectColumns, ", ") + ` FROM prospects WHERE 1=1`
	var args []any

	if filter.Stage != "" {
		query += ` AND stage = ?`
		args = append(args, string(filter.Stage))
	}
	if filter.ScrapeStatus != "" {
		query += ` AND scrape_status = ?`
		args = append(args, string(filter.ScrapeStatus))
	}
	if filter.SendStatus != "" {
		query += ` AND send_status = ?`
		args = append(args, string(filter.SendStatus))
	}
	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, model.NormalizeDomain(filter.Domain))
	}
	if filter.ContactEmail != "" {
		query += ` AND LOWER(contact_email) = LOWER(?)`
		args = append(args, filter.ContactEmail)
	}
	if filter.HasEmail != nil {
		if *filter.HasEmail {
			query += ` AND contact_email != ''`
		} else {
			query += ` AND contact_email = ''`
		}
	}
	if len(filter.IDs) > 0 {
		query += ` AND id IN (?` + strings.Repeat(", ?", len(filter.IDs)-1) + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list prospects iterate")
}

func (s *SQLiteStore) InsertProspects(ctx context.Context, prospects []model.Prospect) (int, error) {
	if len(prospects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert prospects")
	}
	defer tx.Rollback()

	// No unique constraint guards domain (duplicates are legal until the
	// dedup pass), so skip-existing is an explicit anti-join per row.
	placeholders := make([]string, len(prospectColumns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := `INSERT INTO prospects (` + strings.Join(prospectColumns, ", ") + `)
		 SELECT ` + strings.Join(placeholders, ", ") + `
		 WHERE NOT EXISTS (SELECT 1 FROM prospects WHERE domain = ?)`

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert prospects")
	}
	defer stmt.Close()

	saved := 0
	for i := range prospects {
		args := append(prospectArgs(&prospects[i]), prospects[i].Domain)
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert prospect %s", prospects[i].Domain)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert prospects")
	}
	return saved, nil
}

func (s *SQLiteStore) ListDomainDuplicates(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(prospectColumns, ", ")+` FROM prospects
		 WHERE lower(domain) IN (
			SELECT lower(domain) FROM prospects GROUP BY lower(domain) HAVING COUNT(*) > 1
		 )
		 ORDER BY lower(domain), created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list domain duplicates")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list domain duplicates iterate")
}

func (s *SQLiteStore) DeleteProspects(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM prospects WHERE id IN (?`+strings.Repeat(", ?", len(ids)-1)+`)`,
		args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete prospects")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// Jobs

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.Job) error {
	params := job.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, job_type, params, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, string(job.Type), string(params), string(job.Status), job.CreatedAt)
	return eris.Wrapf(err, "sqlite: insert job %s", job.ID)
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	query := `UPDATE jobs SET status = ?, error_message = ? WHERE id = ?`
	args := []any{string(status), errMsg, jobID}
	if status == model.JobRunning {
		query = `UPDATE jobs SET status = ?, error_message = ?, started_at = ? WHERE id = ?`
		args = []any{string(status), errMsg, time.Now().UTC(), jobID}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, result *model.JobResult, errMsg string) error {
	var resultJSON any
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal job result")
		}
		resultJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, result = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(status), resultJSON, errMsg, time.Now().UTC(), jobID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_type, params, status, result, error_message, created_at, started_at, completed_at
		 FROM jobs WHERE id = ?`, jobID)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("job not found: %s", jobID)
	}
	return j, err
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, job_type, params, status, result, error_message, created_at, started_at, completed_at
	          FROM jobs WHERE 1=1`
	var args []any

	if filter.Type != "" {
		query += ` AND job_type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

// Discovery queries

func (s *SQLiteStore) CreateQuery(ctx context.Context, q *model.DiscoveryQuery) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discovery_queries (id, job_id, keyword, location, category, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.JobID, q.Keyword, q.Location, q.Category, string(q.Status), q.CreatedAt)
	return eris.Wrapf(err, "sqlite: insert query %s", q.ID)
}

func (s *SQLiteStore) CompleteQuery(ctx context.Context, q *model.DiscoveryQuery) error {
	now := time.Now().UTC()
	q.CompletedAt = &now
	res, err := s.db.ExecContext(ctx,
		`UPDATE discovery_queries SET
			status = ?, results_found = ?, results_duplicate = ?,
			results_existing = ?, results_saved = ?, completed_at = ?
		 WHERE id = ?`,
		string(q.Status), q.ResultsFound, q.ResultsDupe,
		q.ResultsExisting, q.ResultsSaved, now, q.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete query %s", q.ID)
	}
	return checkRowsAffected(res, "query", q.ID)
}

func (s *SQLiteStore) ListQueries(ctx context.Context, jobID string) ([]model.DiscoveryQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, keyword, location, category, status,
		        results_found, results_duplicate, results_existing, results_saved,
		        created_at, completed_at
		 FROM discovery_queries WHERE job_id = ? ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list queries")
	}
	defer rows.Close()

	var out []model.DiscoveryQuery
	for rows.Next() {
		var q model.DiscoveryQuery
		var completedAt sql.NullTime
		if err := rows.Scan(&q.ID, &q.JobID, &q.Keyword, &q.Location, &q.Category, &q.Status,
			&q.ResultsFound, &q.ResultsDupe, &q.ResultsExisting, &q.ResultsSaved,
			&q.CreatedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query")
		}
		if completedAt.Valid {
			t := completedAt.Time
			q.CompletedAt = &t
		}
		out = append(out, q)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list queries iterate")
}

// Send log

func (s *SQLiteStore) AppendSendLog(ctx context.Context, e *model.SendLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO send_log (id, prospect_id, recipient, subject, body, thread_id, sequence_index, provider_message_id, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProspectID, e.Recipient, e.Subject, e.Body,
		e.ThreadID, e.SequenceIndex, e.ProviderMessageID, e.SentAt)
	return eris.Wrapf(err, "sqlite: append send log %s", e.ProspectID)
}

func (s *SQLiteStore) ListSendLog(ctx context.Context, prospectID string) ([]model.SendLogEntry, error) {
	return s.querySendLog(ctx,
		`SELECT id, prospect_id, recipient, subject, body, thread_id, sequence_index, provider_message_id, sent_at
		 FROM send_log WHERE prospect_id = ? ORDER BY sent_at ASC`, prospectID)
}

func (s *SQLiteStore) ListSendLogByDomain(ctx context.Context, domain string) ([]model.SendLogEntry, error) {
	return s.querySendLog(ctx,
		`SELECT l.id, l.prospect_id, l.recipient, l.subject, l.body, l.thread_id, l.sequence_index, l.provider_message_id, l.sent_at
		 FROM send_log l JOIN prospects p ON p.id = l.prospect_id
		 WHERE p.domain = ? ORDER BY l.sent_at ASC`, model.NormalizeDomain(domain))
}

func (s *SQLiteStore) querySendLog(ctx context.Context, query string, arg any) ([]model.SendLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list send log")
	}
	defer rows.Close()

	var out []model.SendLogEntry
	for rows.Next() {
		var e model.SendLogEntry
		if err := rows.Scan(&e.ID, &e.ProspectID, &e.Recipient, &e.Subject, &e.Body,
			&e.ThreadID, &e.SequenceIndex, &e.ProviderMessageID, &e.SentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan send log")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list send log iterate")
}

// helpers

func insertProspectSQL(placeholder string) string {
	ph := make([]string, len(prospectColumns))
	for i := range ph {
		if placeholder == "?" {
			ph[i] = "?"
		} else {
			ph[i] = fmt.Sprintf("$%d", i+1)
		}
	}
	return `INSERT INTO prospects (` + strings.Join(prospectColumns, ", ") + `) VALUES (` +
		strings.Join(ph, ", ") + `)`
}

func prospectArgs(p *model.Prospect) []any {
	return []any{
		p.ID, p.Domain, p.PageURL, p.Name,
		p.ContactEmail, string(p.ContactMethod), p.Confidence,
		string(p.Intent), p.IntentConfidence,
		string(p.DiscoveryStatus), string(p.ScrapeStatus), string(p.ApprovalStatus),
		string(p.VerificationStatus), string(p.DraftStatus), string(p.SendStatus), string(p.Stage),
		p.DraftSubject, p.DraftBody,
		p.ThreadID, p.SequenceIndex, p.FollowupsSent,
		nullableRaw(p.DiscoveryRaw), nullableRaw(p.EnrichmentRaw),
		p.CreatedAt, p.UpdatedAt, p.LastSent,
	}
}

func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProspect(row scannable) (*model.Prospect, error) {
	var p model.Prospect
	var discoveryRaw, enrichmentRaw sql.NullString
	var lastSent sql.NullTime

	err := row.Scan(
		&p.ID, &p.Domain, &p.PageURL, &p.Name,
		&p.ContactEmail, &p.ContactMethod, &p.Confidence,
		&p.Intent, &p.IntentConfidence,
		&p.DiscoveryStatus, &p.ScrapeStatus, &p.ApprovalStatus,
		&p.VerificationStatus, &p.DraftStatus, &p.SendStatus, &p.Stage,
		&p.DraftSubject, &p.DraftBody,
		&p.ThreadID, &p.SequenceIndex, &p.FollowupsSent,
		&discoveryRaw, &enrichmentRaw,
		&p.CreatedAt, &p.UpdatedAt, &lastSent,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prospect")
	}

	if discoveryRaw.Valid {
		p.DiscoveryRaw = json.RawMessage(discoveryRaw.String)
	}
	if enrichmentRaw.Valid {
		p.EnrichmentRaw = json.RawMessage(enrichmentRaw.String)
	}
	if lastSent.Valid {
		t := lastSent.Time
		p.LastSent = &t
	}
	return &p, nil
}

func scanJob(row scannable) (*model.Job, error) {
	var j model.Job
	var params string
	var result sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&j.ID, &j.Type, &params, &j.Status, &result,
		&j.ErrorMessage, &j.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	j.Params = json.RawMessage(params)
	if result.Valid {
		j.Result = &model.JobResult{}
		if err := json.Unmarshal([]byte(result.String), j.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal job result")
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return &j, nil
}
