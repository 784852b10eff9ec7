package exchange

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Exchange actions, mirrored in topic names:
// {prefix}/{station}/{action}/request and .../response.
const (
	ActionHeartbeat = "heartbeat"
	ActionConfig    = "config"
	ActionData      = "data"
)

// Reply is the outcome of one exchange. The router JSON-encodes Payload onto
// the mirrored response topic. OnPublished, when set, runs only after the
// publish succeeded; it carries confirmation-dependent side effects such as
// clearing the configuration-pending flag.
type Reply struct {
	Payload     map[string]interface{}
	StationID   *uuid.UUID
	Failed      bool
	OnPublished func(ctx context.Context)
}

// Handler transforms an inbound exchange request into a Reply. Handlers never
// return an error to the router: devices cannot interpret transport-level
// errors, so failures surface as best-effort payloads plus log entries.
type Handler interface {
	Handle(ctx context.Context, stationCode string, payload []byte) Reply
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, stationCode string, payload []byte) Reply

func (f HandlerFunc) Handle(ctx context.Context, stationCode string, payload []byte) Reply {
	return f(ctx, stationCode, payload)
}

// TelemetryParams is the nested parameter object of a data-upload request.
// Pointer fields distinguish absent values from zero values.
type TelemetryParams struct {
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
	RSSI           *float64 `json:"rssi"`
	BatteryVoltage *float64 `json:"battery_voltage"`
}

type dataUploadRequest struct {
	Params *TelemetryParams `json:"params"`
}

func parseDataUpload(payload []byte) (*TelemetryParams, error) {
	var req dataUploadRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if req.Params == nil {
		req.Params = &TelemetryParams{}
	}
	return req.Params, nil
}

// serverTimeFormat is the wall-clock format devices receive in heartbeat and
// config replies.
const serverTimeFormat = "2006-01-02 15:04:05"

func formatServerTime(t time.Time) string {
	return t.Format(serverTimeFormat)
}
