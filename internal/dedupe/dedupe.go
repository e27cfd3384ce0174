// Package dedupe collapses prospects sharing a domain down to one
// representative row.
package dedupe

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Engine removes duplicate prospects. Running it again on the result is a
// no-op.
type Engine struct {
	store store.Store
}

// NewEngine creates a dedup engine.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// Result reports one dedup pass.
type Result struct {
	Groups  int
	Deleted int
}

// Run groups prospects by case-folded domain, keeps the best-ranked row per
// group, and deletes the rest. Singleton groups are never touched.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	dupes, err := e.store.ListDomainDuplicates(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dedupe: list duplicates")
	}

	groups := make(map[string][]model.Prospect)
	for _, p := range dupes {
		key := strings.ToLower(p.Domain)
		groups[key] = append(groups[key], p)
	}

	var doomed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		rankGroup(group)
		for _, loser := range group[1:] {
			doomed = append(doomed, loser.ID)
		}
		zap.L().Debug("dedupe: group resolved",
			zap.String("domain", group[0].Domain),
			zap.String("survivor", group[0].ID),
			zap.Int("losers", len(group)-1))
	}

	result := &Result{Groups: len(groups)}
	if len(doomed) > 0 {
		n, err := e.store.DeleteProspects(ctx, doomed)
		if err != nil {
			return nil, eris.Wrap(err, "dedupe: delete losers")
		}
		result.Deleted = n
	}

	zap.L().Info("dedupe complete",
		zap.Int("groups", result.Groups), zap.Int("deleted", result.Deleted))
	return result, nil
}

// rankGroup sorts a duplicate group best-first: rows holding an email beat
// rows without one, then fresher updates, then fresher creation. IDs break
// the final tie so ordering is deterministic.
func rankGroup(group []model.Prospect) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := &group[i], &group[j]
		aEmail, bEmail := a.ContactEmail != "", b.ContactEmail != ""
		if aEmail != bEmail {
			return aEmail
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
