package store

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ProspectFilter specifies criteria for listing prospects.
type ProspectFilter struct {
	Stage        model.Stage        `json:"stage,omitempty"`
	ScrapeStatus model.ScrapeStatus `json:"scrape_status,omitempty"`
	SendStatus   model.SendStatus   `json:"send_status,omitempty"`
	Domain       string             `json:"domain,omitempty"`
	ContactEmail string             `json:"contact_email,omitempty"`
	HasEmail     *bool              `json:"has_email,omitempty"`
	IDs          []string           `json:"ids,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Offset       int                `json:"offset,omitempty"`
}

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Type   model.JobType   `json:"type,omitempty"`
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the outreach pipeline.
type Store interface {
	// Prospects
	CreateProspect(ctx context.Context, p *model.Prospect) error
	SaveProspect(ctx context.Context, p *model.Prospect) error
	GetProspect(ctx context.Context, id string) (*model.Prospect, error)
	// GetProspectByDomain returns (nil, nil) when no prospect exists for the
	// normalized domain.
	GetProspectByDomain(ctx context.Context, domain string) (*model.Prospect, error)
	ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error)
	// InsertProspects bulk-inserts new prospects, skipping domains that
	// already exist. Returns the number actually inserted.
	InsertProspects(ctx context.Context, prospects []model.Prospect) (int, error)
	// ListDomainDuplicates returns every prospect whose case-folded domain
	// occurs more than once, ordered by domain.
	ListDomainDuplicates(ctx context.Context) ([]model.Prospect, error)
	DeleteProspects(ctx context.Context, ids []string) (int, error)

	// Jobs
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	CompleteJob(ctx context.Context, jobID string, status model.JobStatus, result *model.JobResult, errMsg string) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// Discovery queries
	CreateQuery(ctx context.Context, q *model.DiscoveryQuery) error
	CompleteQuery(ctx context.Context, q *model.DiscoveryQuery) error
	ListQueries(ctx context.Context, jobID string) ([]model.DiscoveryQuery, error)

	// Send log
	AppendSendLog(ctx context.Context, e *model.SendLogEntry) error
	ListSendLog(ctx context.Context, prospectID string) ([]model.SendLogEntry, error)
	// ListSendLogByDomain returns the full thread history for a domain,
	// oldest first.
	ListSendLogByDomain(ctx context.Context, domain string) ([]model.SendLogEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// schemaVersion is recorded by Migrate and checked on every later run.
// A mismatch means the binary and the database disagree on the schema;
// both backends refuse to continue rather than guess.
const schemaVersion = 1

// prospectColumns is the canonical column order shared by both backends.
var prospectColumns = []string{
	"id", "domain", "page_url", "name",
	"contact_email", "contact_method", "confidence",
	"intent", "intent_confidence",
	"discovery_status", "scrape_status", "approval_status",
	"verification_status", "draft_status", "send_status", "stage",
	"draft_subject", "draft_body",
	"thread_id", "sequence_index", "followups_sent",
	"discovery_raw", "enrichment_raw",
	"created_at", "updated_at", "last_sent",
}
