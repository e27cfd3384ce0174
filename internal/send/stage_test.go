package send

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

type fakeSender struct {
	id    string
	err   error
	calls []Outbound
}

func (f *fakeSender) Send(_ context.Context, msg Outbound) (string, error) {
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func newTestStage(t *testing.T, sender Sender) (*Stage, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return NewStage(s, sender), s
}

// sendable builds a prospect passing every precondition.
func sendable(id string) *model.Prospect {
	p := model.NewProspect(id, "acme.com")
	p.ApplyEmail(model.EmailCandidate{Email: "info@acme.com", Method: model.MethodSnov, Confidence: 80})
	p.VerificationStatus = model.VerificationVerified
	p.DraftStatus = model.DraftDrafted
	p.DraftSubject = "Hello"
	p.DraftBody = "Hi there"
	p.ThreadID = id
	p.AdvanceStage()
	return p
}

func TestStage_Send(t *testing.T) {
	sender := &fakeSender{id: "msg-123"}
	stage, s := newTestStage(t, sender)

	p := sendable("p-1")
	require.NoError(t, s.CreateProspect(context.Background(), p))
	require.NoError(t, stage.Send(context.Background(), p))

	assert.Equal(t, model.SendSent, p.SendStatus)
	require.NotNil(t, p.LastSent)
	assert.Equal(t, 0, p.FollowupsSent)
	assert.Equal(t, model.StageSent, p.Stage)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "info@acme.com", sender.calls[0].To)
	assert.Equal(t, "p-1", sender.calls[0].ThreadID)

	entries, err := s.ListSendLog(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "msg-123", entries[0].ProviderMessageID)
	assert.Equal(t, "Hello", entries[0].Subject)
}

func TestStage_Run_SendCap(t *testing.T) {
	sender := &fakeSender{id: "msg-1"}
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	stage := NewStage(st, sender, WithSendCap(2))

	for _, id := range []string{"p-1", "p-2", "p-3"} {
		require.NoError(t, st.CreateProspect(context.Background(), sendable(id)))
	}

	result, err := stage.Run(context.Background(), model.SendParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Executed)
	assert.Len(t, sender.calls, 2)
}

func TestStage_FollowupIncrement(t *testing.T) {
	stage, s := newTestStage(t, &fakeSender{id: "msg-1"})

	p := sendable("p-2")
	p.SequenceIndex = 1
	require.NoError(t, s.CreateProspect(context.Background(), p))
	require.NoError(t, stage.Send(context.Background(), p))

	assert.Equal(t, 1, p.FollowupsSent)
}

func TestStage_PreconditionOrder(t *testing.T) {
	stage, _ := newTestStage(t, &fakeSender{})

	// Violate everything at once; the first check in order must win.
	bare := model.NewProspect("p-1", "acme.com")
	assert.ErrorIs(t, stage.Send(context.Background(), bare), ErrNotDrafted)

	drafted := sendable("p-2")
	drafted.SendStatus = model.SendSent
	drafted.ContactEmail = ""
	drafted.VerificationStatus = model.VerificationUnverified
	assert.ErrorIs(t, stage.Send(context.Background(), drafted), ErrAlreadySent)

	noEmail := sendable("p-3")
	noEmail.ContactEmail = ""
	noEmail.VerificationStatus = model.VerificationUnverified
	assert.ErrorIs(t, stage.Send(context.Background(), noEmail), ErrNoEmail)

	unverified := sendable("p-4")
	unverified.VerificationStatus = model.VerificationUnverified
	assert.ErrorIs(t, stage.Send(context.Background(), unverified), ErrNotVerified)
}

func TestStage_EmptyDraftBody(t *testing.T) {
	stage, _ := newTestStage(t, &fakeSender{})

	p := sendable("p-1")
	p.DraftBody = ""
	assert.ErrorIs(t, stage.Send(context.Background(), p), ErrNotDrafted)
}

func TestStage_ProviderFailureLeavesStateUntouched(t *testing.T) {
	sender := &fakeSender{err: eris.New("quota exceeded")}
	stage, s := newTestStage(t, sender)

	p := sendable("p-1")
	require.NoError(t, s.CreateProspect(context.Background(), p))

	err := stage.Send(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	// Retryable without recomposition.
	assert.Equal(t, model.SendPending, p.SendStatus)
	assert.Nil(t, p.LastSent)
	assert.Equal(t, model.DraftDrafted, p.DraftStatus)

	entries, listErr := s.ListSendLog(context.Background(), "p-1")
	require.NoError(t, listErr)
	assert.Empty(t, entries)
}

func TestStage_Run_Counts(t *testing.T) {
	stage, s := newTestStage(t, &fakeSender{id: "msg-1"})

	ok := sendable("p-1")
	require.NoError(t, s.CreateProspect(context.Background(), ok))

	unverified := sendable("p-2")
	unverified.Domain = "beta.com"
	unverified.VerificationStatus = model.VerificationUnverified
	require.NoError(t, s.CreateProspect(context.Background(), unverified))

	result, err := stage.Run(context.Background(), model.SendParams{
		ProspectIDs: []string{"p-1", "p-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Executed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)

	got, err := s.GetProspect(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.SendSent, got.SendStatus)
}
