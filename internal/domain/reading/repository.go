package reading

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists sensor readings. RecordUpload is the transactional
// contract shared by the MQTT and legacy HTTP ingress paths.
type Repository interface {
	// RecordUpload inserts the reading and, in the same transaction, clears
	// the station's pending-update flag and refreshes last-seen. Either both
	// effects commit or neither does.
	RecordUpload(ctx context.Context, r *SensorReading) error

	ListByStation(ctx context.Context, stationID uuid.UUID, page, pageSize int) ([]*SensorReading, int64, error)
	CountByStation(ctx context.Context, stationID uuid.UUID) (int64, error)
}
