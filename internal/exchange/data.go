package exchange

import (
	"context"
	"math"
	"time"

	"iot-fleet-hub/internal/domain/reading"
	"iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DataUploadHandler ingests one telemetry sample. The reading insert and the
// status update (clear pending-update flag, refresh last-seen) commit in one
// transaction through reading.Repository.RecordUpload. Readings over this path
// are stamped with the server's receipt time and are never web-triggered.
type DataUploadHandler struct {
	stations station.Repository
	readings reading.Repository
	now      func() time.Time
}

func NewDataUploadHandler(stations station.Repository, readings reading.Repository) *DataUploadHandler {
	return &DataUploadHandler{
		stations: stations,
		readings: readings,
		now:      time.Now,
	}
}

func (h *DataUploadHandler) Handle(ctx context.Context, stationCode string, payload []byte) Reply {
	log := logger.WithStation(stationCode)

	params, err := parseDataUpload(payload)
	if err != nil {
		// No negative-acknowledgment channel exists on this path; the row is
		// simply not inserted.
		log.Warn("Malformed data-upload payload", zap.Error(err))
		return failedUploadReply(nil)
	}

	if fieldErrs := ValidateTelemetry(params); len(fieldErrs) > 0 {
		for _, fe := range fieldErrs {
			log.Warn("Data-upload validation failed",
				zap.String("field", fe.Field),
				zap.String("reason", fe.Message),
			)
		}
		return failedUploadReply(nil)
	}

	st, err := h.stations.GetByCode(ctx, stationCode)
	if err != nil || st == nil || !st.Active {
		log.Warn("Data upload from unknown or inactive station", zap.Error(err))
		return failedUploadReply(nil)
	}

	rec := &reading.SensorReading{
		StationID:      st.ID,
		Temperature:    *params.Temperature,
		Humidity:       *params.Humidity,
		RSSI:           int(math.Round(*params.RSSI)),
		BatteryVoltage: *params.BatteryVoltage,
		CapturedAt:     h.now(),
		WebTriggered:   false,
	}

	if err := h.readings.RecordUpload(ctx, rec); err != nil {
		log.Error("Failed to record data upload", zap.Error(err))
		return failedUploadReply(&st.ID)
	}

	return Reply{
		StationID: &st.ID,
		Payload: map[string]interface{}{
			"reply": map[string]interface{}{
				"success": true,
			},
		},
	}
}

func failedUploadReply(stationID *uuid.UUID) Reply {
	return Reply{
		StationID: stationID,
		Failed:    true,
		Payload: map[string]interface{}{
			"reply": map[string]interface{}{
				"success": false,
			},
		},
	}
}
