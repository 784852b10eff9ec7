package exchange

import (
	"context"
	"errors"
	"time"

	"iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/logger"

	"go.uber.org/zap"
)

// HeartbeatHandler answers the lightweight "do you want anything from me"
// poll. It is read-only: devices use the two flags to decide whether to follow
// up with a configuration or data exchange.
type HeartbeatHandler struct {
	stations station.Repository
	now      func() time.Time
}

func NewHeartbeatHandler(stations station.Repository) *HeartbeatHandler {
	return &HeartbeatHandler{
		stations: stations,
		now:      time.Now,
	}
}

func (h *HeartbeatHandler) Handle(ctx context.Context, stationCode string, _ []byte) Reply {
	requestUpdate := false
	configurationUpdate := false
	reply := Reply{}

	st, err := h.stations.GetByCode(ctx, stationCode)
	switch {
	case err == nil && st.Active:
		reply.StationID = &st.ID
		if st.Status != nil {
			requestUpdate = st.Status.RequestUpdate
		}
		if st.Configuration != nil {
			configurationUpdate = st.Configuration.ConfigurationUpdate
		}
	case errors.Is(err, station.ErrStationNotFound) || (err == nil && !st.Active):
		// Unknown or inactive station: reply with both flags false. The device
		// cannot interpret a transport-level error, so the failure is recorded
		// here and in the task log only.
		logger.Warn("Heartbeat from unknown or inactive station",
			zap.String("station", stationCode),
		)
	default:
		logger.Error("Heartbeat station lookup failed",
			zap.String("station", stationCode),
			zap.Error(err),
		)
	}

	reply.Payload = map[string]interface{}{
		"success": true,
		"reply": map[string]interface{}{
			"current_date":         formatServerTime(h.now()),
			"request_update":       requestUpdate,
			"configuration_update": configurationUpdate,
		},
	}
	return reply
}
