package handler

import (
	"math"
	"net/http"
	"time"

	domainReading "iot-fleet-hub/internal/domain/reading"
	domainStation "iot-fleet-hub/internal/domain/station"
	domainTasklog "iot-fleet-hub/internal/domain/tasklog"
	"iot-fleet-hub/internal/exchange"
	"iot-fleet-hub/internal/logger"
	"iot-fleet-hub/internal/middleware"
	"iot-fleet-hub/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LegacyDeviceHandler replicates the config-fetch and data-upload exchanges
// over token-authenticated HTTP for devices that cannot yet speak MQTT. It
// operates on the same station/reading stores as the pub/sub path and
// preserves the same state machine: the pending-update flag clears only via a
// confirmed round-trip with the device.
type LegacyDeviceHandler struct {
	stations domainStation.Repository
	readings domainReading.Repository
	taskLogs domainTasklog.Repository
	now      func() time.Time
}

func NewLegacyDeviceHandler(stations domainStation.Repository, readings domainReading.Repository, taskLogs domainTasklog.Repository) *LegacyDeviceHandler {
	return &LegacyDeviceHandler{
		stations: stations,
		readings: readings,
		taskLogs: taskLogs,
		now:      time.Now,
	}
}

func (h *LegacyDeviceHandler) RegisterRoutes(router *gin.RouterGroup, deviceAuth gin.HandlerFunc) {
	api := router.Group("/api")
	api.Use(deviceAuth)
	{
		api.POST("/config", h.FetchConfig)
		api.POST("/upload", h.UploadData)
	}
}

type legacyUploadRequest struct {
	StationCode    string   `form:"station_code" json:"station_code"`
	Temperature    *float64 `form:"temperature" json:"temperature"`
	Humidity       *float64 `form:"humidity" json:"humidity"`
	RSSI           *float64 `form:"rssi" json:"rssi"`
	BatteryVoltage *float64 `form:"battery_voltage" json:"battery_voltage"`
	UpdateRequest  *bool    `form:"update_request" json:"update_request"`
}

// FetchConfig returns the device's configuration snapshot and clears the
// pending-update and configuration-pending flags as a side effect: serving the
// config is the confirmed round-trip for both flags on the legacy path. The
// clearing event is task-logged separately from uploads.
func (h *LegacyDeviceHandler) FetchConfig(c *gin.Context) {
	station := middleware.GetDevice(c)
	if station == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Device token required")
		return
	}

	ctx := c.Request.Context()
	received := h.now()

	dataInterval := domainStation.DefaultDataInterval
	dataCollectionTime := domainStation.DefaultDataCollectionTime
	if station.Configuration != nil {
		dataInterval = station.Configuration.DataInterval
		dataCollectionTime = station.Configuration.DataCollectionTime
	}

	requestUpdate := false
	if station.Status != nil {
		requestUpdate = station.Status.RequestUpdate
	}
	configurationUpdate := station.Configuration != nil && station.Configuration.ConfigurationUpdate

	if requestUpdate {
		if err := h.stations.SetRequestUpdate(ctx, station.ID, false); err != nil {
			logger.Error("Failed to clear pending-update flag on config fetch",
				zap.String("station", station.StationCode),
				zap.Error(err),
			)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to serve configuration")
			return
		}
	}

	// The response itself is the delivery confirmation on this path, so the
	// configuration-pending flag clears here, mirroring the pub/sub exchange.
	if configurationUpdate {
		if err := h.stations.ClearConfigurationUpdate(ctx, station.ID); err != nil {
			logger.Error("Failed to clear configuration-pending flag on config fetch",
				zap.String("station", station.StationCode),
				zap.Error(err),
			)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to serve configuration")
			return
		}
	}

	if requestUpdate || configurationUpdate {
		h.appendLog(c, station, "/api/config", domainTasklog.TaskConfiguration, received)

		logger.Info("Pending flags cleared via legacy config fetch",
			zap.String("station", station.StationCode),
			zap.Bool("request_update", requestUpdate),
			zap.Bool("configuration_update", configurationUpdate),
			zap.String("event", "pending_flags_cleared"),
		)
	}

	if err := h.stations.TouchLastSeen(ctx, station.ID); err != nil {
		logger.Error("Failed to refresh last-seen on config fetch",
			zap.String("station", station.StationCode),
			zap.Error(err),
		)
	}

	utils.SuccessResponse(c, http.StatusOK, "Configuration retrieved", gin.H{
		"current_date":         h.now().Format("2006-01-02 15:04:05"),
		"request_update":       requestUpdate,
		"data_interval":        dataInterval,
		"data_collection_time": dataCollectionTime,
	})
}

// UploadData validates and stores one telemetry sample with the same ranges
// and the same atomic insert-plus-status-update transaction as the pub/sub
// data exchange.
func (h *LegacyDeviceHandler) UploadData(c *gin.Context) {
	station := middleware.GetDevice(c)
	if station == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Device token required")
		return
	}

	var req legacyUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Station-code mismatch is a hard rejection, never a silent substitution.
	if req.StationCode != station.StationCode {
		logger.Warn("Upload rejected: station code mismatch",
			zap.String("authenticated", station.StationCode),
			zap.String("claimed", req.StationCode),
		)
		utils.ErrorResponse(c, http.StatusForbidden, "Station code does not match authenticated device")
		return
	}

	params := &exchange.TelemetryParams{
		Temperature:    req.Temperature,
		Humidity:       req.Humidity,
		RSSI:           req.RSSI,
		BatteryVoltage: req.BatteryVoltage,
	}
	if fieldErrs := exchange.ValidateTelemetry(params); len(fieldErrs) > 0 {
		utils.ValidationErrorResponse(c, http.StatusUnprocessableEntity, "Telemetry validation failed", fieldErrs)
		return
	}

	ctx := c.Request.Context()
	received := h.now()

	webTriggered := req.UpdateRequest != nil && *req.UpdateRequest

	rec := &domainReading.SensorReading{
		StationID:      station.ID,
		Temperature:    *req.Temperature,
		Humidity:       *req.Humidity,
		RSSI:           int(math.Round(*req.RSSI)),
		BatteryVoltage: *req.BatteryVoltage,
		CapturedAt:     h.now(),
		WebTriggered:   webTriggered,
	}

	if err := h.readings.RecordUpload(ctx, rec); err != nil {
		logger.Error("Failed to record legacy upload",
			zap.String("station", station.StationCode),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store reading")
		return
	}

	h.appendLog(c, station, "/api/upload", domainTasklog.TaskDataUpload, received)

	utils.SuccessResponse(c, http.StatusOK, "Reading stored", gin.H{
		"reading_id": rec.ID.String(),
	})
}

func (h *LegacyDeviceHandler) appendLog(c *gin.Context, station *domainStation.Station, topic string, taskType domainTasklog.TaskType, received time.Time) {
	processed := h.now()
	latency := processed.Sub(received).Milliseconds()
	stationID := station.ID

	entry := &domainTasklog.Entry{
		StationID:      &stationID,
		StationCode:    station.StationCode,
		Topic:          topic,
		TaskType:       taskType,
		Direction:      domainTasklog.DirectionResponse,
		Status:         domainTasklog.StatusAcknowledged,
		ReceivedAt:     received,
		ProcessedAt:    &processed,
		ResponseTimeMs: &latency,
	}

	if err := h.taskLogs.Append(c.Request.Context(), entry); err != nil {
		logger.Error("Failed to append task log",
			zap.String("station", station.StationCode),
			zap.String("task_type", string(taskType)),
			zap.Error(err),
		)
	}
}
