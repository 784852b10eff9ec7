package reading

import (
	"time"

	"github.com/google/uuid"
)

// SensorReading is one telemetry sample reported by a station. Rows are
// immutable once created and cascade-deleted with their station.
type SensorReading struct {
	ID             uuid.UUID
	StationID      uuid.UUID
	Temperature    float64
	Humidity       float64
	RSSI           int
	BatteryVoltage float64
	CapturedAt     time.Time
	WebTriggered   bool
	CreatedAt      time.Time
}
