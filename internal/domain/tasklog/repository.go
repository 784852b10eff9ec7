package tasklog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the append-only store for exchange audit entries.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByStation(ctx context.Context, stationID uuid.UUID, limit int) ([]*Entry, error)
}
