package model

import "time"

// QueryStatus is the lifecycle state of a generated discovery query.
type QueryStatus string

const (
	QueryPending   QueryStatus = "pending"
	QueryRunning   QueryStatus = "running"
	QueryCompleted QueryStatus = "completed"
	QueryFailed    QueryStatus = "failed"
)

// DiscoveryQuery is one generated search query within a discovery job.
// Rows are immutable once the query completes.
type DiscoveryQuery struct {
	ID       string      `json:"id" db:"id"`
	JobID    string      `json:"job_id" db:"job_id"`
	Keyword  string      `json:"keyword" db:"keyword"`
	Location string      `json:"location" db:"location"`
	Category string      `json:"category,omitempty" db:"category"`
	Status   QueryStatus `json:"status" db:"status"`

	ResultsFound    int `json:"results_found" db:"results_found"`
	ResultsDupe     int `json:"results_duplicate" db:"results_duplicate"`
	ResultsExisting int `json:"results_existing" db:"results_existing"`
	ResultsSaved    int `json:"results_saved" db:"results_saved"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
