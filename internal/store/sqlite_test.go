package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Migrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLiteStore_Migrate_SchemaVersionMismatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(`UPDATE schema_version SET version = 99`)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version")
}

func TestSQLiteStore_ProspectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.NewProspect(uuid.New().String(), "https://www.Acme.com/about")
	p.Name = "Acme"
	p.DiscoveryRaw = json.RawMessage(`{"position":3}`)
	require.NoError(t, s.CreateProspect(ctx, p))

	got, err := s.GetProspect(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, model.StageDiscovered, got.Stage)
	assert.Equal(t, model.VerificationUnverified, got.VerificationStatus)
	assert.JSONEq(t, `{"position":3}`, string(got.DiscoveryRaw))
	assert.Nil(t, got.LastSent)
	assert.Empty(t, got.EnrichmentRaw)
}

func TestSQLiteStore_GetProspectByDomain_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetProspectByDomain(context.Background(), "nobody.example")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SaveProspect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.NewProspect(uuid.New().String(), "acme.com")
	require.NoError(t, s.CreateProspect(ctx, p))

	p.ApplyEmail(model.EmailCandidate{Email: "info@acme.com", Method: model.MethodSnov, Confidence: 80})
	sent := time.Now().UTC().Truncate(time.Second)
	p.LastSent = &sent
	require.NoError(t, s.SaveProspect(ctx, p))

	got, err := s.GetProspect(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "info@acme.com", got.ContactEmail)
	assert.Equal(t, model.MethodSnov, got.ContactMethod)
	assert.Equal(t, model.StageEmailFound, got.Stage)
	require.NotNil(t, got.LastSent)
}

func TestSQLiteStore_SaveProspect_NotFound(t *testing.T) {
	s := newTestStore(t)

	p := model.NewProspect(uuid.New().String(), "ghost.com")
	err := s.SaveProspect(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_InsertProspects_SkipsExistingDomains(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.NewProspect(uuid.New().String(), "one.com")
	require.NoError(t, s.CreateProspect(ctx, first))

	batch := []model.Prospect{
		*model.NewProspect(uuid.New().String(), "one.com"),
		*model.NewProspect(uuid.New().String(), "two.com"),
		*model.NewProspect(uuid.New().String(), "three.com"),
	}
	saved, err := s.InsertProspects(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	got, err := s.GetProspectByDomain(ctx, "one.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestSQLiteStore_ListProspects_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emailed := model.NewProspect(uuid.New().String(), "with-email.com")
	emailed.ApplyEmail(model.EmailCandidate{Email: "a@with-email.com", Method: model.MethodHunter, Confidence: 70})
	require.NoError(t, s.CreateProspect(ctx, emailed))
	require.NoError(t, s.CreateProspect(ctx, model.NewProspect(uuid.New().String(), "plain.com")))

	hasEmail := true
	got, err := s.ListProspects(ctx, ProspectFilter{HasEmail: &hasEmail})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "with-email.com", got[0].Domain)

	got, err = s.ListProspects(ctx, ProspectFilter{Stage: model.StageDiscovered})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "plain.com", got[0].Domain)

	got, err = s.ListProspects(ctx, ProspectFilter{IDs: []string{emailed.ID}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, emailed.ID, got[0].ID)

	// Email lookup is case-insensitive and crosses domains.
	got, err = s.ListProspects(ctx, ProspectFilter{ContactEmail: "A@With-Email.com"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, emailed.ID, got[0].ID)
}

func TestSQLiteStore_DeleteProspects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := model.NewProspect(uuid.New().String(), "a.com")
	b := model.NewProspect(uuid.New().String(), "b.com")
	require.NoError(t, s.CreateProspect(ctx, a))
	require.NoError(t, s.CreateProspect(ctx, b))

	n, err := s.DeleteProspects(ctx, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.DeleteProspects(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteStore_JobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      model.JobEnrich,
		Params:    json.RawMessage(`{"max":5}`),
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, model.JobRunning, ""))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	result := &model.JobResult{Executed: 5, Succeeded: 4, Failed: 1}
	require.NoError(t, s.CompleteJob(ctx, job.ID, model.JobCompleted, result, ""))
	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 4, got.Result.Succeeded)
	require.NotNil(t, got.CompletedAt)
}

func TestSQLiteStore_ListJobs_ByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, st := range []model.JobStatus{model.JobPending, model.JobCompleted} {
		job := &model.Job{
			ID:        uuid.New().String(),
			Type:      model.JobDiscover,
			Status:    st,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.CreateJob(ctx, job))
	}

	got, err := s.ListJobs(ctx, JobFilter{Status: model.JobPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.JobPending, got[0].Status)
}

func TestSQLiteStore_QueryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := &model.Job{ID: uuid.New().String(), Type: model.JobDiscover, Status: model.JobPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateJob(ctx, job))

	q := &model.DiscoveryQuery{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		Keyword:   "plumbers",
		Location:  "usa",
		Status:    model.QueryPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateQuery(ctx, q))

	q.Status = model.QueryCompleted
	q.ResultsFound = 30
	q.ResultsDupe = 4
	q.ResultsExisting = 6
	q.ResultsSaved = 20
	require.NoError(t, s.CompleteQuery(ctx, q))

	got, err := s.ListQueries(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].ResultsSaved)
	assert.NotNil(t, got[0].CompletedAt)
}

func TestSQLiteStore_SendLogByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.NewProspect(uuid.New().String(), "acme.com")
	require.NoError(t, s.CreateProspect(ctx, p))

	for i := 0; i < 2; i++ {
		e := &model.SendLogEntry{
			ID:            uuid.New().String(),
			ProspectID:    p.ID,
			Recipient:     "info@acme.com",
			Subject:       "hello",
			Body:          "body",
			ThreadID:      p.ID,
			SequenceIndex: i,
			SentAt:        time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AppendSendLog(ctx, e))
	}

	entries, err := s.ListSendLogByDomain(ctx, "https://Acme.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].SequenceIndex)
	assert.Equal(t, 1, entries[1].SequenceIndex)
}

func TestSQLiteStore_ListDomainDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Fold collisions come from rows written before normalization was in
	// place, so insert the variant domains directly.
	for _, d := range []string{"dup.com", "DUP.com", "solo.com"} {
		p := model.NewProspect(uuid.New().String(), "placeholder.com")
		p.Domain = d
		require.NoError(t, s.CreateProspect(ctx, p))
	}

	got, err := s.ListDomainDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "dup.com", model.NormalizeDomain(p.Domain))
	}
}
