package compose

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/draft"
)

type fakeGenerator struct {
	draft    draft.Draft
	err      error
	requests []draft.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req draft.Request) (*draft.Draft, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	d := f.draft
	return &d, nil
}

func newTestComposer(t *testing.T, gen draft.Generator) (*Composer, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	return NewComposer(s, gen, Sender{Name: "Alex Doe", Company: "Sells Group"}), s
}

func seedProspect(t *testing.T, s *store.SQLiteStore, id, domain string, mutate func(*model.Prospect)) *model.Prospect {
	t.Helper()
	p := model.NewProspect(id, domain)
	p.ApplyEmail(model.EmailCandidate{Email: "info@" + domain, Method: model.MethodSnov, Confidence: 80})
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, s.CreateProspect(context.Background(), p))
	return p
}

func TestComposer_Initial(t *testing.T) {
	gen := &fakeGenerator{draft: draft.Draft{Subject: "Hello", Body: "Hi there"}}
	composer, s := newTestComposer(t, gen)
	seedProspect(t, s, "p-1", "acme.com", nil)

	result, err := composer.Run(context.Background(), model.ComposeParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	got, err := s.GetProspect(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftDrafted, got.DraftStatus)
	assert.Equal(t, "Hello", got.DraftSubject)
	assert.Equal(t, "Hi there", got.DraftBody)
	assert.Equal(t, "p-1", got.ThreadID)
	assert.Equal(t, 0, got.SequenceIndex)
	assert.Equal(t, model.StageDrafted, got.Stage)

	require.Len(t, gen.requests, 1)
	assert.False(t, gen.requests[0].IsFollowUp())
}

func TestComposer_FollowUpInheritsThread(t *testing.T) {
	gen := &fakeGenerator{draft: draft.Draft{Subject: "Re: Hello", Body: "Following up"}}
	composer, s := newTestComposer(t, gen)

	sentAt := time.Now().UTC().Add(-24 * time.Hour)
	seedProspect(t, s, "p-1", "acme.com", func(p *model.Prospect) {
		p.ThreadID = "p-1"
		p.SequenceIndex = 0
		p.SendStatus = model.SendSent
		p.LastSent = &sentAt
	})
	require.NoError(t, s.AppendSendLog(context.Background(), &model.SendLogEntry{
		ID: "log-1", ProspectID: "p-1", Recipient: "info@acme.com",
		Subject: "Hello", Body: "Hi there", ThreadID: "p-1",
		SequenceIndex: 0, SentAt: sentAt,
	}))

	target := seedProspect(t, s, "p-2", "acme.com", nil)
	require.NoError(t, composer.Compose(context.Background(), target))

	assert.Equal(t, "p-1", target.ThreadID)
	assert.Equal(t, 1, target.SequenceIndex)
	assert.Equal(t, model.DraftDrafted, target.DraftStatus)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	require.True(t, req.IsFollowUp())
	require.Len(t, req.Prior, 1)
	assert.Equal(t, "Hello", req.Prior[0].Subject)
	assert.Equal(t, 0, req.Prior[0].SequenceIndex)
}

func TestComposer_FollowUpUsesLatestPrior(t *testing.T) {
	gen := &fakeGenerator{draft: draft.Draft{Subject: "x", Body: "y"}}
	composer, s := newTestComposer(t, gen)

	older := time.Now().UTC().Add(-48 * time.Hour)
	newer := time.Now().UTC().Add(-24 * time.Hour)
	seedProspect(t, s, "p-1", "acme.com", func(p *model.Prospect) {
		p.ThreadID = "p-1"
		p.SendStatus = model.SendSent
		p.LastSent = &older
	})
	seedProspect(t, s, "p-2", "acme.com", func(p *model.Prospect) {
		p.Domain = "acme.com"
		p.ThreadID = "p-1"
		p.SequenceIndex = 1
		p.SendStatus = model.SendSent
		p.LastSent = &newer
	})

	target := seedProspect(t, s, "p-3", "acme.com", nil)
	require.NoError(t, composer.Compose(context.Background(), target))

	assert.Equal(t, "p-1", target.ThreadID)
	assert.Equal(t, 2, target.SequenceIndex)
}

func TestComposer_OverwritesExistingDraft(t *testing.T) {
	gen := &fakeGenerator{draft: draft.Draft{Subject: "New", Body: "New body"}}
	composer, s := newTestComposer(t, gen)

	target := seedProspect(t, s, "p-1", "acme.com", func(p *model.Prospect) {
		p.DraftSubject = "Old"
		p.DraftBody = "Old body"
		p.DraftStatus = model.DraftDrafted
	})

	require.NoError(t, composer.Compose(context.Background(), target))
	assert.Equal(t, "New", target.DraftSubject)
	assert.Equal(t, "New body", target.DraftBody)
}

func TestComposer_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: eris.New("model unavailable")}
	composer, s := newTestComposer(t, gen)
	seedProspect(t, s, "p-1", "acme.com", nil)

	result, err := composer.Run(context.Background(), model.ComposeParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	got, err := s.GetProspect(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftFailed, got.DraftStatus)
	assert.Empty(t, got.DraftSubject)
}

func TestComposer_FollowUpMatchesByEmail(t *testing.T) {
	gen := &fakeGenerator{draft: draft.Draft{Subject: "Re: Hello", Body: "Following up"}}
	composer, s := newTestComposer(t, gen)

	sentAt := time.Now().UTC().Add(-24 * time.Hour)
	seedProspect(t, s, "p-1", "old-site.com", func(p *model.Prospect) {
		p.ContactEmail = "jane@acme.com"
		p.ThreadID = "p-1"
		p.SendStatus = model.SendSent
		p.LastSent = &sentAt
	})
	require.NoError(t, s.AppendSendLog(context.Background(), &model.SendLogEntry{
		ID: "log-1", ProspectID: "p-1", Recipient: "jane@acme.com",
		Subject: "Hello", Body: "Hi there", ThreadID: "p-1",
		SequenceIndex: 0, SentAt: sentAt,
	}))

	// Same contact on a fresh domain: the thread follows the email.
	target := seedProspect(t, s, "p-2", "acme.com", func(p *model.Prospect) {
		p.ContactEmail = "jane@acme.com"
	})
	require.NoError(t, composer.Compose(context.Background(), target))

	assert.Equal(t, "p-1", target.ThreadID)
	assert.Equal(t, 1, target.SequenceIndex)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	require.True(t, req.IsFollowUp())
	require.Len(t, req.Prior, 1)
	assert.Equal(t, "Hello", req.Prior[0].Subject)
}
