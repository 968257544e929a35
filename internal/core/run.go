package core

import "time"

// Scan run statuses.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScanRun is a persisted record of one completed scan.
type ScanRun struct {
	ID           int64     `db:"id" json:"id"`
	RepoFullName string    `db:"repo_full_name" json:"repo_full_name"`
	PRNumber     int       `db:"pr_number" json:"pr_number"`
	HeadSHA      string    `db:"head_sha" json:"head_sha"`
	Provider     string    `db:"provider" json:"provider"`
	FilesChanged int       `db:"files_changed" json:"files_changed"`
	FilesScanned int       `db:"files_scanned" json:"files_scanned"`
	Findings     int       `db:"findings" json:"findings"`
	Failures     int       `db:"failures" json:"failures"`
	Summary      string    `db:"summary" json:"summary"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
