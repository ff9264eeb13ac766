package models

// SessionStatus represents the status of a verification run.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusRunning  SessionStatus = "running"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusError    SessionStatus = "error"
)

// RunSession tracks one asynchronous verification of an uploaded log.
type RunSession struct {
	ID        string        `json:"id"`
	FileID    string        `json:"fileId"`
	Status    SessionStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartTime int64         `json:"startTime,omitempty"` // Unix ms
	EndTime   int64         `json:"endTime,omitempty"`   // Unix ms
	Report    *Report       `json:"report,omitempty"`
}

// ParseError describes a line the parser could not tokenize.
type ParseError struct {
	Line    int    `json:"line" msgpack:"line"`
	Content string `json:"content" msgpack:"content"`
	Reason  string `json:"reason" msgpack:"reason"`
}

// NewRunSession creates a RunSession in pending status.
func NewRunSession(id, fileID string) *RunSession {
	return &RunSession{
		ID:     id,
		FileID: fileID,
		Status: SessionStatusPending,
	}
}
