package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// fallbackVerifyConfidence is applied when the provider knows the domain but
// did not return the exact scraped address. The domain is good even if the
// specific mailbox was not independently confirmed.
const fallbackVerifyConfidence = 40.0

// Verifier confirms a prospect's email against a search provider.
type Verifier struct {
	provider Provider
}

// NewVerifier creates a Verifier backed by the given provider.
func NewVerifier(provider Provider) *Verifier {
	return &Verifier{provider: provider}
}

// Verify updates the prospect's verification state in place. A provider
// error marks this prospect failed and is returned so the caller can count
// it; it must not abort the surrounding job.
func (v *Verifier) Verify(ctx context.Context, p *model.Prospect) error {
	results, err := v.provider.DomainSearch(ctx, p.Domain)
	if err != nil {
		p.VerificationStatus = model.VerificationFailed
		return eris.Wrapf(err, "verify: domain search %s", p.Domain)
	}

	if p.ContactEmail != "" {
		if match := findExact(results, p.ContactEmail); match != nil {
			p.VerificationStatus = model.VerificationVerified
			p.Confidence = match.Confidence
			p.AdvanceStage()
			return nil
		}
		if len(results) > 0 {
			// Exact address missing but the domain is known to the provider.
			zap.L().Debug("verify: fallback verification",
				zap.String("domain", p.Domain), zap.String("email", p.ContactEmail))
			p.VerificationStatus = model.VerificationVerified
			if p.Confidence > fallbackVerifyConfidence {
				p.Confidence = fallbackVerifyConfidence
			}
			p.AdvanceStage()
			return nil
		}
	}

	// No stored email, or the provider has nothing for it: accept the first
	// qualifying candidate as both contact and verification.
	for _, c := range results {
		if c.Email == "" {
			continue
		}
		p.ApplyEmail(c)
		p.VerificationStatus = model.VerificationVerified
		p.AdvanceStage()
		return nil
	}

	p.VerificationStatus = model.VerificationFailed
	return nil
}

func findExact(results []model.EmailCandidate, email string) *model.EmailCandidate {
	for i := range results {
		if strings.EqualFold(results[i].Email, email) {
			return &results[i]
		}
	}
	return nil
}
