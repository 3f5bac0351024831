package domain

import "time"

// Submission is a community-posted offer. Submissions feed the community
// connector on subsequent ingestion runs.
type Submission struct {
	ID          int64     `json:"id"`
	Store       string    `json:"store"`
	StoreID     string    `json:"store_id"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Link        string    `json:"link"`
	PostedAt    time.Time `json:"posted_at"`
}
