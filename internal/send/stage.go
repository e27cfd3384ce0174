package send

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Precondition failures, one sentinel per check so callers can tell them
// apart. They are checked in this order.
var (
	ErrNotDrafted  = eris.New("send: prospect has no usable draft")
	ErrAlreadySent = eris.New("send: prospect was already sent")
	ErrNoEmail     = eris.New("send: prospect has no contact email")
	ErrNotVerified = eris.New("send: contact email is not verified")
)

// Stage performs the final delivery step of the pipeline.
type Stage struct {
	store   store.Store
	sender  Sender
	pacing  time.Duration
	sendCap int
}

// Option configures the stage.
type Option func(*Stage)

// WithPacing inserts a delay between consecutive deliveries.
func WithPacing(d time.Duration) Option {
	return func(s *Stage) { s.pacing = d }
}

// WithSendCap bounds successful deliveries per pass. Zero means unbounded.
func WithSendCap(n int) Option {
	return func(s *Stage) { s.sendCap = n }
}

// NewStage creates a send stage.
func NewStage(st store.Store, sender Sender, opts ...Option) *Stage {
	s := &Stage{store: st, sender: sender}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one send pass. Precondition failures are skips; provider
// failures are counted and leave the prospect retryable.
func (s *Stage) Run(ctx context.Context, params model.SendParams) (*model.JobResult, error) {
	prospects, err := s.selectProspects(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.JobResult{}
	for i := range prospects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.sendCap > 0 && result.Succeeded >= s.sendCap {
			zap.L().Info("send: delivery cap reached", zap.Int("cap", s.sendCap))
			break
		}
		p := &prospects[i]
		result.Executed++

		err := s.Send(ctx, p)
		switch {
		case err == nil:
			result.Succeeded++
		case isPreconditionError(err):
			zap.L().Debug("send: precondition not met",
				zap.String("id", p.ID), zap.String("domain", p.Domain), zap.Error(err))
			result.Skipped++
			continue
		default:
			zap.L().Warn("send: delivery failed",
				zap.String("id", p.ID), zap.String("domain", p.Domain), zap.Error(err))
			result.Failed++
			continue
		}

		if err := s.store.SaveProspect(ctx, p); err != nil {
			zap.L().Error("send: save prospect",
				zap.String("id", p.ID), zap.Error(err))
		}

		if s.pacing > 0 && i < len(prospects)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.pacing):
			}
		}
	}
	return result, nil
}

// Send checks every precondition in order, delivers the draft, appends the
// immutable send-log entry, and updates the prospect in place. A provider
// failure returns before any state is touched so the prospect stays
// retryable without recomposition.
func (s *Stage) Send(ctx context.Context, p *model.Prospect) error {
	if p.DraftStatus != model.DraftDrafted || p.DraftSubject == "" || p.DraftBody == "" {
		return ErrNotDrafted
	}
	if p.SendStatus == model.SendSent {
		return ErrAlreadySent
	}
	if p.ContactEmail == "" {
		return ErrNoEmail
	}
	if p.VerificationStatus != model.VerificationVerified {
		return ErrNotVerified
	}

	providerID, err := s.sender.Send(ctx, Outbound{
		To:       p.ContactEmail,
		Subject:  p.DraftSubject,
		Body:     p.DraftBody,
		ThreadID: p.ThreadID,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := &model.SendLogEntry{
		ID:                uuid.NewString(),
		ProspectID:        p.ID,
		Recipient:         p.ContactEmail,
		Subject:           p.DraftSubject,
		Body:              p.DraftBody,
		ThreadID:          p.ThreadID,
		SequenceIndex:     p.SequenceIndex,
		ProviderMessageID: providerID,
		SentAt:            now,
	}
	if err := s.store.AppendSendLog(ctx, entry); err != nil {
		return eris.Wrapf(err, "send: append log for %s", p.ID)
	}

	p.SendStatus = model.SendSent
	p.LastSent = &now
	if p.SequenceIndex > 0 {
		p.FollowupsSent++
	}
	p.AdvanceStage()
	return nil
}

func isPreconditionError(err error) bool {
	return errors.Is(err, ErrNotDrafted) ||
		errors.Is(err, ErrAlreadySent) ||
		errors.Is(err, ErrNoEmail) ||
		errors.Is(err, ErrNotVerified)
}

func (s *Stage) selectProspects(ctx context.Context, params model.SendParams) ([]model.Prospect, error) {
	if len(params.ProspectIDs) > 0 {
		return s.store.ListProspects(ctx, store.ProspectFilter{IDs: params.ProspectIDs, Limit: len(params.ProspectIDs)})
	}
	return s.store.ListProspects(ctx, store.ProspectFilter{
		Stage: model.StageDrafted,
		Limit: params.Max,
	})
}
