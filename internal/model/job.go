package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// JobType identifies which pipeline phase a job drives.
type JobType string

const (
	JobDiscover JobType = "discover"
	JobEnrich   JobType = "enrich"
	JobVerify   JobType = "verify"
	JobCompose  JobType = "compose"
	JobSend     JobType = "send"
	JobScrape   JobType = "scrape"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is one asynchronous unit of pipeline work. Jobs are never deleted;
// completed rows double as an audit log.
type Job struct {
	ID           string          `json:"id" db:"id"`
	Type         JobType         `json:"job_type" db:"job_type"`
	Params       json.RawMessage `json:"params" db:"params"`
	Status       JobStatus       `json:"status" db:"status"`
	Result       *JobResult      `json:"result,omitempty" db:"result"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// JobResult summarizes a job's outcome. Partial failure is visible through
// the counts rather than a blanket failed status.
type JobResult struct {
	Executed  int            `json:"executed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// DiscoverParams configures a discovery job.
type DiscoverParams struct {
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
	MaxResults int      `json:"max_results"`
}

// Validate checks discovery parameters at job creation time.
func (p DiscoverParams) Validate() error {
	if len(p.Keywords) == 0 && len(p.Categories) == 0 {
		return eris.New("discover: at least one keyword or category is required")
	}
	if len(p.Locations) == 0 {
		return eris.New("discover: at least one location is required")
	}
	if p.MaxResults < 0 {
		return eris.New("discover: max_results must not be negative")
	}
	return nil
}

// EnrichParams configures an enrichment job.
type EnrichParams struct {
	ProspectIDs       []string `json:"prospect_ids,omitempty"`
	Max               int      `json:"max,omitempty"`
	OnlyMissingEmails bool     `json:"only_missing_emails,omitempty"`
}

// Validate checks enrichment parameters.
func (p EnrichParams) Validate() error {
	if p.Max < 0 {
		return eris.New("enrich: max must not be negative")
	}
	return nil
}

// VerifyParams configures a verification job.
type VerifyParams struct {
	ProspectIDs []string `json:"prospect_ids,omitempty"`
	Max         int      `json:"max,omitempty"`
}

// Validate checks verification parameters.
func (p VerifyParams) Validate() error {
	if p.Max < 0 {
		return eris.New("verify: max must not be negative")
	}
	return nil
}

// ComposeParams configures a compose job.
type ComposeParams struct {
	ProspectIDs []string `json:"prospect_ids,omitempty"`
	Max         int      `json:"max,omitempty"`
}

// Validate checks compose parameters.
func (p ComposeParams) Validate() error {
	if p.Max < 0 {
		return eris.New("compose: max must not be negative")
	}
	return nil
}

// SendParams configures a send job.
type SendParams struct {
	ProspectIDs []string `json:"prospect_ids,omitempty"`
	Max         int      `json:"max,omitempty"`
}

// Validate checks send parameters.
func (p SendParams) Validate() error {
	if p.Max < 0 {
		return eris.New("send: max must not be negative")
	}
	return nil
}

// ScrapeParams configures a local re-scrape job (no paid providers).
type ScrapeParams struct {
	ProspectIDs []string `json:"prospect_ids,omitempty"`
	Max         int      `json:"max,omitempty"`
}

// Validate checks scrape parameters.
func (p ScrapeParams) Validate() error {
	if p.Max < 0 {
		return eris.New("scrape: max must not be negative")
	}
	return nil
}

// JobParams is the discriminated union of per-type job configuration.
type JobParams interface {
	Validate() error
}

// ParseParams decodes and validates raw params for the given job type.
// Unknown fields are rejected so malformed triggers fail at creation, not
// inside the worker.
func ParseParams(jobType JobType, raw json.RawMessage) (JobParams, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var (
		params JobParams
		err    error
	)
	switch jobType {
	case JobDiscover:
		var p DiscoverParams
		err = strictUnmarshal(raw, &p)
		params = p
	case JobEnrich:
		var p EnrichParams
		err = strictUnmarshal(raw, &p)
		params = p
	case JobVerify:
		var p VerifyParams
		err = strictUnmarshal(raw, &p)
		params = p
	case JobCompose:
		var p ComposeParams
		err = strictUnmarshal(raw, &p)
		params = p
	case JobSend:
		var p SendParams
		err = strictUnmarshal(raw, &p)
		params = p
	case JobScrape:
		var p ScrapeParams
		err = strictUnmarshal(raw, &p)
		params = p
	default:
		return nil, eris.Errorf("job: unknown job type %q", jobType)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "job: parse %s params", jobType)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func strictUnmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
