package models

import "time"

// FileInfo describes an uploaded trace log.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded", "verifying", "verified", "error"
	LastRunID  string    `json:"lastRunId,omitempty"`
}
