// Package model defines the core entities of the outreach pipeline: prospects,
// jobs, discovery queries, and the send log.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage is the canonical pipeline position of a prospect, derived from the
// five status axes. It only ever moves forward, except to StageFailed.
type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageScraped    Stage = "scraped"
	StageEmailFound Stage = "email_found"
	StageVerified   Stage = "verified"
	StageLead       Stage = "lead"
	StageDrafted    Stage = "drafted"
	StageSent       Stage = "sent"
	StageFailed     Stage = "failed"
)

// stageOrder indexes the forward progression of stages. StageFailed is
// deliberately absent: it is a terminal marker reachable from anywhere.
var stageOrder = map[Stage]int{
	StageDiscovered: 0,
	StageScraped:    1,
	StageEmailFound: 2,
	StageVerified:   3,
	StageLead:       4,
	StageDrafted:    5,
	StageSent:       6,
}

// Index returns the position of s in the stage progression, or -1 for
// StageFailed and unknown values.
func (s Stage) Index() int {
	if i, ok := stageOrder[s]; ok {
		return i
	}
	return -1
}

// DiscoveryStatus tracks whether a prospect has completed discovery.
type DiscoveryStatus string

const (
	DiscoveryNew        DiscoveryStatus = "new"
	DiscoveryDiscovered DiscoveryStatus = "discovered"
)

// ScrapeStatus tracks enrichment progress for a prospect.
type ScrapeStatus string

const (
	ScrapeDiscovered   ScrapeStatus = "discovered"
	ScrapeScraped      ScrapeStatus = "scraped"
	ScrapeEnriched     ScrapeStatus = "enriched"
	ScrapeNoEmailFound ScrapeStatus = "no_email_found"
	ScrapeFailed       ScrapeStatus = "failed"
)

// ApprovalStatus tracks lead promotion.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// VerificationStatus tracks email verification.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFailed     VerificationStatus = "failed"
)

// DraftStatus tracks message composition.
type DraftStatus string

const (
	DraftPending DraftStatus = "pending"
	DraftDrafted DraftStatus = "drafted"
	DraftFailed  DraftStatus = "failed"
)

// SendStatus tracks the final send.
type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
)

// ContactMethod records where a prospect's contact email came from.
type ContactMethod string

const (
	MethodSnov             ContactMethod = "snov"
	MethodHunter           ContactMethod = "hunter"
	MethodLocalScraping    ContactMethod = "local_scraping"
	MethodPatternGenerated ContactMethod = "pattern_generated"
	MethodPendingRetry     ContactMethod = "pending_retry"
	MethodSkippedIntent    ContactMethod = "skipped_intent"
)

// methodRank orders contact methods by trust. Higher outranks lower when
// deciding whether a candidate email may overwrite a stored one.
var methodRank = map[ContactMethod]int{
	MethodSnov:             40,
	MethodHunter:           40,
	MethodLocalScraping:    30,
	MethodPatternGenerated: 20,
	MethodPendingRetry:     10,
	MethodSkippedIntent:    0,
}

// MethodRank returns the trust rank for a contact method. Unknown provider
// names rank alongside the known paid providers.
func MethodRank(m ContactMethod) int {
	if r, ok := methodRank[m]; ok {
		return r
	}
	if m == "" {
		return -1
	}
	// Unrecognized methods are assumed to be provider names.
	return methodRank[MethodSnov]
}

// Intent is the discovery-time classification of a result.
type Intent string

const (
	IntentService     Intent = "service"
	IntentBrand       Intent = "brand"
	IntentBlog        Intent = "blog"
	IntentMedia       Intent = "media"
	IntentMarketplace Intent = "marketplace"
	IntentPlatform    Intent = "platform"
	IntentUnknown     Intent = "unknown"
)

// QualifiesForEnrichment reports whether the intent gates the prospect into
// paid enrichment. Only business-partner types qualify.
func (i Intent) QualifiesForEnrichment() bool {
	return i == IntentService || i == IntentBrand
}

// Prospect is the central entity: a discovered candidate progressing through
// the outreach pipeline.
type Prospect struct {
	ID      string `json:"id" db:"id"`
	Domain  string `json:"domain" db:"domain"`
	PageURL string `json:"page_url,omitempty" db:"page_url"`
	Name    string `json:"name,omitempty" db:"name"`

	ContactEmail  string        `json:"contact_email,omitempty" db:"contact_email"`
	ContactMethod ContactMethod `json:"contact_method,omitempty" db:"contact_method"`
	Confidence    float64       `json:"confidence,omitempty" db:"confidence"`

	Intent           Intent  `json:"intent,omitempty" db:"intent"`
	IntentConfidence float64 `json:"intent_confidence,omitempty" db:"intent_confidence"`

	DiscoveryStatus    DiscoveryStatus    `json:"discovery_status" db:"discovery_status"`
	ScrapeStatus       ScrapeStatus       `json:"scrape_status" db:"scrape_status"`
	ApprovalStatus     ApprovalStatus     `json:"approval_status" db:"approval_status"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	DraftStatus        DraftStatus        `json:"draft_status" db:"draft_status"`
	SendStatus         SendStatus         `json:"send_status" db:"send_status"`

	Stage Stage `json:"stage" db:"stage"`

	DraftSubject string `json:"draft_subject,omitempty" db:"draft_subject"`
	DraftBody    string `json:"draft_body,omitempty" db:"draft_body"`

	ThreadID      string `json:"thread_id,omitempty" db:"thread_id"`
	SequenceIndex int    `json:"sequence_index" db:"sequence_index"`
	FollowupsSent int    `json:"followups_sent" db:"followups_sent"`

	// Raw provider payloads kept for auditability; parsed only by the stage
	// that wrote them.
	DiscoveryRaw  json.RawMessage `json:"discovery_raw,omitempty" db:"discovery_raw"`
	EnrichmentRaw json.RawMessage `json:"enrichment_raw,omitempty" db:"enrichment_raw"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	LastSent  *time.Time `json:"last_sent,omitempty" db:"last_sent"`
}

// NewProspect creates a prospect for a normalized domain with every status
// axis at its initial value.
func NewProspect(id, domain string) *Prospect {
	now := time.Now().UTC()
	return &Prospect{
		ID:                 id,
		Domain:             NormalizeDomain(domain),
		DiscoveryStatus:    DiscoveryNew,
		ScrapeStatus:       ScrapeDiscovered,
		ApprovalStatus:     ApprovalPending,
		VerificationStatus: VerificationUnverified,
		DraftStatus:        DraftPending,
		SendStatus:         SendPending,
		Stage:              StageDiscovered,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// NormalizeDomain lower-cases a domain and strips scheme, www prefix, path,
// and port.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	for _, prefix := range []string{"https://", "http://"} {
		d = strings.TrimPrefix(d, prefix)
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	return d
}

// DeriveStage computes the canonical stage from the status axes. The highest
// satisfied stage wins; a prospect approved as a lead holds StageLead until
// a draft exists even if it is also verified.
func DeriveStage(p *Prospect) Stage {
	switch {
	case p.SendStatus == SendSent:
		return StageSent
	case p.DraftStatus == DraftDrafted:
		return StageDrafted
	case p.ApprovalStatus == ApprovalApproved && p.ContactEmail != "":
		return StageLead
	case p.VerificationStatus == VerificationVerified:
		return StageVerified
	case p.ContactEmail != "":
		return StageEmailFound
	case p.ScrapeStatus == ScrapeScraped || p.ScrapeStatus == ScrapeEnriched:
		return StageScraped
	default:
		return StageDiscovered
	}
}

// AdvanceStage recomputes the stage from the status axes and applies it only
// if it does not regress. Returns the resulting stage.
func (p *Prospect) AdvanceStage() Stage {
	next := DeriveStage(p)
	if p.Stage == StageFailed {
		return p.Stage
	}
	if next.Index() >= p.Stage.Index() {
		p.Stage = next
	}
	return p.Stage
}

// MarkFailed moves the prospect to the terminal failed stage.
func (p *Prospect) MarkFailed() {
	p.Stage = StageFailed
}

// EmailCandidate is a resolved email with its provenance and confidence.
type EmailCandidate struct {
	Email      string        `json:"email"`
	Method     ContactMethod `json:"method"`
	Confidence float64       `json:"confidence"`
}

// ApplyEmail is the single writer for the contact fields. The candidate is
// accepted when no email is stored yet, when its source outranks the stored
// method, or when its confidence strictly exceeds the stored one. Returns
// true if the prospect was updated.
func (p *Prospect) ApplyEmail(c EmailCandidate) bool {
	if c.Email == "" {
		return false
	}
	if p.ContactEmail != "" &&
		MethodRank(c.Method) <= MethodRank(p.ContactMethod) &&
		c.Confidence <= p.Confidence {
		return false
	}
	p.ContactEmail = c.Email
	p.ContactMethod = c.Method
	p.Confidence = c.Confidence
	p.ScrapeStatus = ScrapeEnriched
	p.AdvanceStage()
	return true
}
