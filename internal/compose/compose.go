// Package compose drafts outreach messages for prospects, threading
// follow-ups onto previously sent messages for the same domain or contact.
package compose

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/draft"
)

// Sender identifies who the drafts are written as.
type Sender struct {
	Name    string
	Company string
}

// Composer generates drafts. It never sends; an existing draft is always
// overwritten rather than duplicated.
type Composer struct {
	store     store.Store
	generator draft.Generator
	sender    Sender
}

// NewComposer creates a Composer.
func NewComposer(st store.Store, generator draft.Generator, sender Sender) *Composer {
	return &Composer{store: st, generator: generator, sender: sender}
}

// Run executes one compose pass.
func (c *Composer) Run(ctx context.Context, params model.ComposeParams) (*model.JobResult, error) {
	prospects, err := c.selectProspects(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.JobResult{}
	for i := range prospects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := &prospects[i]
		result.Executed++

		if err := c.Compose(ctx, p); err != nil {
			zap.L().Warn("compose: draft failed",
				zap.String("domain", p.Domain), zap.Error(err))
			result.Failed++
		} else {
			result.Succeeded++
		}

		if err := c.store.SaveProspect(ctx, p); err != nil {
			zap.L().Error("compose: save prospect",
				zap.String("id", p.ID), zap.Error(err))
		}
	}
	return result, nil
}

// Compose drafts one message for the prospect, in place. Follow-up threading
// is resolved from prior sent prospects sharing the domain or contact email.
func (c *Composer) Compose(ctx context.Context, p *model.Prospect) error {
	req := draft.Request{
		Domain:        p.Domain,
		CompanyName:   p.Name,
		PageTitle:     p.Name,
		PageURL:       p.PageURL,
		SenderName:    c.sender.Name,
		SenderCompany: c.sender.Company,
	}

	prior, err := c.findPriorSent(ctx, p)
	if err != nil {
		return err
	}
	if prior != nil {
		threadID := prior.ThreadID
		if threadID == "" {
			threadID = prior.ID
		}
		p.ThreadID = threadID
		p.SequenceIndex = prior.SequenceIndex + 1

		history, err := c.threadHistory(ctx, prior.Domain)
		if err != nil {
			return err
		}
		req.Prior = history
	} else {
		p.ThreadID = p.ID
		p.SequenceIndex = 0
	}

	d, err := c.generator.Generate(ctx, req)
	if err != nil {
		p.DraftStatus = model.DraftFailed
		return eris.Wrapf(err, "compose: generate draft for %s", p.Domain)
	}

	p.DraftSubject = d.Subject
	p.DraftBody = d.Body
	p.DraftStatus = model.DraftDrafted
	p.AdvanceStage()
	return nil
}

// findPriorSent returns the most recently sent prospect sharing this
// prospect's domain or email, or nil when the message is an initial one. The
// email match catches contacts that moved to a new domain between passes.
func (c *Composer) findPriorSent(ctx context.Context, p *model.Prospect) (*model.Prospect, error) {
	candidates, err := c.store.ListProspects(ctx, store.ProspectFilter{Domain: p.Domain})
	if err != nil {
		return nil, eris.Wrapf(err, "compose: list prospects for %s", p.Domain)
	}
	if p.ContactEmail != "" {
		byEmail, err := c.store.ListProspects(ctx, store.ProspectFilter{ContactEmail: p.ContactEmail})
		if err != nil {
			return nil, eris.Wrapf(err, "compose: list prospects for %s", p.ContactEmail)
		}
		candidates = append(candidates, byEmail...)
	}

	var prior *model.Prospect
	for i := range candidates {
		cand := &candidates[i]
		if cand.ID == p.ID || cand.LastSent == nil {
			continue
		}
		if prior == nil || cand.LastSent.After(*prior.LastSent) {
			prior = cand
		}
	}
	return prior, nil
}

// threadHistory loads every sent message for the domain, oldest first, as
// draft context.
func (c *Composer) threadHistory(ctx context.Context, domain string) ([]draft.PriorMessage, error) {
	entries, err := c.store.ListSendLogByDomain(ctx, domain)
	if err != nil {
		return nil, eris.Wrapf(err, "compose: load send log for %s", domain)
	}

	history := make([]draft.PriorMessage, 0, len(entries))
	for _, e := range entries {
		history = append(history, draft.PriorMessage{
			Subject:       e.Subject,
			Body:          e.Body,
			SentAt:        e.SentAt,
			SequenceIndex: e.SequenceIndex,
		})
	}
	return history, nil
}

func (c *Composer) selectProspects(ctx context.Context, params model.ComposeParams) ([]model.Prospect, error) {
	if len(params.ProspectIDs) > 0 {
		return c.store.ListProspects(ctx, store.ProspectFilter{IDs: params.ProspectIDs, Limit: len(params.ProspectIDs)})
	}
	hasEmail := true
	return c.store.ListProspects(ctx, store.ProspectFilter{HasEmail: &hasEmail, Limit: params.Max})
}
