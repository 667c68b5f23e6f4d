package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanOutcome is one platform's result for one orchestrator run.
// It is created per run and never mutated afterwards.
type ScanOutcome struct {
	Platform   Platform `json:"platform"`
	Found      int      `json:"found"`
	Processed  int      `json:"processed"`
	Approved   int      `json:"approved"`
	Rejected   int      `json:"rejected"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

// CoordinatedScanResult aggregates the outcomes of all platforms
// processed in one coordinated scan run.
type CoordinatedScanResult struct {
	ScanID              uuid.UUID     `json:"scan_id"`
	StartTime           time.Time     `json:"start_time"`
	EndTime             time.Time     `json:"end_time"`
	Platforms           []ScanOutcome `json:"platforms"`
	TotalFound          int           `json:"total_found"`
	TotalApproved       int           `json:"total_approved"`
	SuccessfulPlatforms int           `json:"successful_platforms"`
	FailedPlatforms     int           `json:"failed_platforms"`
}

// Finalize computes the aggregate totals from the per-platform outcomes.
// A platform counts as failed only if it was attempted and did not succeed;
// skipped platforms are absent from Platforms entirely.
func (r *CoordinatedScanResult) Finalize(endTime time.Time) {
	r.EndTime = endTime
	r.TotalFound = 0
	r.TotalApproved = 0
	r.SuccessfulPlatforms = 0
	r.FailedPlatforms = 0
	for i := range r.Platforms {
		outcome := &r.Platforms[i]
		r.TotalFound += outcome.Found
		r.TotalApproved += outcome.Approved
		if outcome.Success {
			r.SuccessfulPlatforms++
		} else {
			r.FailedPlatforms++
		}
	}
}
