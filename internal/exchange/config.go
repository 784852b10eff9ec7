package exchange

import (
	"context"
	"errors"

	"iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/logger"

	"go.uber.org/zap"
)

// ConfigHandler serves the desired operating parameters for a station. The
// configuration-pending flag is cleared through the reply's OnPublished hook:
// the config and data classes publish at-least-once, so a successful publish
// is the delivery confirmation. A failed publish leaves the flag raised and
// the device retries on its next heartbeat. A confirmed exchange also
// refreshes the station's last-seen timestamp.
type ConfigHandler struct {
	stations station.Repository
}

func NewConfigHandler(stations station.Repository) *ConfigHandler {
	return &ConfigHandler{stations: stations}
}

func (h *ConfigHandler) Handle(ctx context.Context, stationCode string, _ []byte) Reply {
	dataInterval := station.DefaultDataInterval
	dataCollectionTime := station.DefaultDataCollectionTime
	reply := Reply{}

	st, err := h.stations.GetByCode(ctx, stationCode)
	switch {
	case err == nil && st.Active:
		reply.StationID = &st.ID
		stationID := st.ID
		clearPending := false
		if st.Configuration != nil {
			dataInterval = st.Configuration.DataInterval
			dataCollectionTime = st.Configuration.DataCollectionTime
			clearPending = st.Configuration.ConfigurationUpdate
		}

		reply.OnPublished = func(ctx context.Context) {
			if clearPending {
				if err := h.stations.ClearConfigurationUpdate(ctx, stationID); err != nil {
					logger.Error("Failed to clear configuration-pending flag",
						zap.String("station", stationCode),
						zap.Error(err),
					)
				}
			}
			if err := h.stations.TouchLastSeen(ctx, stationID); err != nil {
				logger.Error("Failed to refresh last-seen after config exchange",
					zap.String("station", stationCode),
					zap.Error(err),
				)
			}
		}
	case errors.Is(err, station.ErrStationNotFound) || (err == nil && !st.Active):
		logger.Warn("Config request from unknown or inactive station, serving defaults",
			zap.String("station", stationCode),
		)
	default:
		logger.Error("Config station lookup failed",
			zap.String("station", stationCode),
			zap.Error(err),
		)
	}

	reply.Payload = map[string]interface{}{
		"reply": map[string]interface{}{
			"success":              true,
			"data_interval":        dataInterval,
			"data_collection_time": dataCollectionTime,
		},
	}
	return reply
}
