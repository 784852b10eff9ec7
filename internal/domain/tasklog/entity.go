package tasklog

import (
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the protocol exchange class an entry belongs to.
type TaskType string

const (
	TaskHeartbeat     TaskType = "heartbeat"
	TaskConfiguration TaskType = "configuration_update"
	TaskDataUpload    TaskType = "data_upload"
)

// Direction distinguishes the inbound request row from the outbound response row.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// Status is the terminal outcome recorded for an entry.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSent         Status = "sent"
	StatusReceived     Status = "received"
	StatusAcknowledged Status = "acknowledged"
	StatusFailed       Status = "failed"
	StatusTimeout      Status = "timeout"
)

// Entry is one row of the append-only exchange audit log. Entries are never
// updated after their terminal status is written; a failure after the fact
// inserts a second row.
type Entry struct {
	ID             uuid.UUID
	StationID      *uuid.UUID
	StationCode    string
	Topic          string
	TaskType       TaskType
	Direction      Direction
	Status         Status
	ReceivedAt     time.Time
	ProcessedAt    *time.Time
	ResponseTimeMs *int64
	CreatedAt      time.Time
}
