package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/infrastructure/database/postgres"
	"iot-fleet-hub/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// End-to-end exchange flow against the real stores: a pending update request is
// answered by a data upload, and the following heartbeat no longer advertises it.
func TestUploadThenHeartbeatClearsPendingFlag(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&models.StationModel{},
		&models.StationStatusModel{},
		&models.StationConfigurationModel{},
		&models.SensorReadingModel{},
		&models.TaskLogModel{},
	))

	db := &postgres.DB{DB: gormDB}
	stations := postgres.NewStationRepository(db)
	readings := postgres.NewReadingRepository(db)
	ctx := context.Background()

	st := &domainStation.Station{
		StationCode: "KLG-001",
		Name:        "Riverside monitor",
		APIToken:    "token-KLG-001",
		State:       "Selangor",
		District:    "Klang",
		Active:      true,
	}
	require.NoError(t, stations.Create(ctx, st))
	require.NoError(t, stations.SetRequestUpdate(ctx, st.ID, true))

	heartbeat := NewHeartbeatHandler(stations)
	upload := NewDataUploadHandler(stations, readings)

	first := heartbeat.Handle(ctx, "KLG-001", nil)
	assert.True(t, innerFlowReply(t, first)["request_update"].(bool))

	payload, err := json.Marshal(map[string]interface{}{
		"params": map[string]interface{}{
			"temperature":     26.3,
			"humidity":        70.0,
			"rssi":            -64.0,
			"battery_voltage": 3.9,
		},
	})
	require.NoError(t, err)

	uploadReply := upload.Handle(ctx, "KLG-001", payload)
	assert.False(t, uploadReply.Failed)

	second := heartbeat.Handle(ctx, "KLG-001", nil)
	assert.False(t, innerFlowReply(t, second)["request_update"].(bool))

	rows, total, err := readings.ListByStation(ctx, st.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].WebTriggered)
}

func innerFlowReply(t *testing.T, r Reply) map[string]interface{} {
	t.Helper()
	inner, ok := r.Payload["reply"].(map[string]interface{})
	require.True(t, ok)
	return inner
}
