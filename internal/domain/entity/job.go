package entity

import (
	"time"
)

// JobResult is the record published after each scheduled job run.
// Operational consumers subscribe to these instead of scraping logs.
type JobResult struct {
	Job        string                 `json:"job"`
	Status     string                 `json:"status"` // success | error
	Error      string                 `json:"error,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}
