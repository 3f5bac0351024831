package domain

import "time"

// IngestionRecord is one connector's outcome within a run, persisted to
// ingestion history.
type IngestionRecord struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	SourceID   string    `json:"source_id"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	RunAt      time.Time `json:"run_at"`
}

// FetchOutcome is the per-connector result of a single fetch attempt.
// A failed fetch carries the error; the run itself continues.
type FetchOutcome struct {
	SourceID   string    `json:"source_id"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Err        error     `json:"-"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed reports whether the connector fetch failed outright.
func (o *FetchOutcome) Failed() bool {
	return o.Err != nil
}

// RunSummary aggregates one ingestion run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcomes   []FetchOutcome `json:"outcomes"`
	Expired    int64          `json:"expired_removed"`
}

// Totals sums the per-connector counters.
func (r *RunSummary) Totals() (fetched, inserted, duplicates int) {
	for _, o := range r.Outcomes {
		fetched += o.Fetched
		inserted += o.Inserted
		duplicates += o.Duplicates
	}
	return
}

// SourceStatus describes a configured connector for the sources endpoint.
type SourceStatus struct {
	SourceID    string     `json:"source_id"`
	Kind        string     `json:"kind"`
	Enabled     bool       `json:"enabled"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastFetched int        `json:"last_fetched"`
	LastError   string     `json:"last_error,omitempty"`
	Breaker     string     `json:"breaker,omitempty"`
}
