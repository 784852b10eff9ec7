package station

import (
	"context"
	"fmt"
	"testing"

	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/infrastructure/database/postgres"
	"iot-fleet-hub/internal/infrastructure/database/postgres/models"
	"iot-fleet-hub/internal/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	m.Run()
}

func newTestService(t *testing.T) (*Service, domainStation.Repository) {
	t.Helper()

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
	svc := NewService(
		stations,
		postgres.NewReadingRepository(db),
		postgres.NewTaskLogRepository(db),
	)
	return svc, stations
}

func TestDeriveStationCode(t *testing.T) {
	cases := []struct {
		district string
		sequence int
		want     string
	}{
		{"Klang", 1, "KLA-001"},
		{"Klang", 12, "KLA-012"},
		{"KL", 4, "KL-004"},
		{"Petaling Jaya", 7, "PET-007"},
		{"kota-bharu", 3, "KOT-003"},
		{"!!!", 1, "STN-001"},
		{"", 250, "STN-250"},
		{"1a", 9, "1A-009"},
	}

	for _, tc := range cases {
		t.Run(tc.district, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStationCode(tc.district, tc.sequence))
		})
	}
}

func TestCreateStationAssignsCodeAndToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)
	assert.Equal(t, "KLA-001", first.StationCode)
	assert.NotEmpty(t, first.APIToken, "token is surfaced once on creation")
	assert.True(t, first.Active)
	assert.Equal(t, domainStation.DefaultDataInterval, first.DataInterval)
	assert.Equal(t, domainStation.DefaultDataCollectionTime, first.DataCollectionTime)

	second, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Hillside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)
	assert.Equal(t, "KLA-002", second.StationCode)
	assert.NotEqual(t, first.APIToken, second.APIToken)
}

func TestCreateStationRejectsMissingName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateStation(context.Background(), &CreateStationRequest{
		State:    "Selangor",
		District: "Klang",
	})
	require.Error(t, err)
}

func TestGetStationNeverExposesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)

	got, err := svc.GetStation(ctx, created.StationCode)
	require.NoError(t, err)
	assert.Empty(t, got.APIToken)
}

func TestUpdateConfigurationRaisesPendingFlag(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateConfiguration(ctx, created.StationCode, &UpdateConfigurationRequest{
		DataInterval:       10,
		DataCollectionTime: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.DataInterval)
	assert.Equal(t, 120, updated.DataCollectionTime)
	assert.True(t, updated.ConfigurationUpdate)
}

func TestUpdateConfigurationRejectsOutOfRangeInterval(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)

	_, err = svc.UpdateConfiguration(ctx, created.StationCode, &UpdateConfigurationRequest{
		DataInterval:       0,
		DataCollectionTime: 120,
	})
	require.Error(t, err)
}

func TestRequestUpdateOnInactiveStationFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateStation(ctx, created.StationCode))

	err = svc.RequestUpdate(ctx, created.StationCode)
	require.ErrorIs(t, err, domainStation.ErrStationInactive)
}

func TestRequestUpdateRaisesFlag(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RequestUpdate(ctx, created.StationCode))

	got, err := svc.GetStation(ctx, created.StationCode)
	require.NoError(t, err)
	assert.True(t, got.RequestUpdate)
}

func TestPurgeStationRemovesRegistryRow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)

	require.NoError(t, svc.PurgeStation(ctx, created.StationCode))

	_, err = svc.GetStation(ctx, created.StationCode)
	require.ErrorIs(t, err, domainStation.ErrStationNotFound)

	err = svc.PurgeStation(ctx, created.StationCode)
	require.ErrorIs(t, err, domainStation.ErrStationNotFound)
}

func TestStationOnlineStateDerivesFromLastSeen(t *testing.T) {
	svc, stations := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStation(ctx, &CreateStationRequest{
		Name:     "Riverside monitor",
		State:    "Selangor",
		District: "Klang",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainStation.StateOffline), created.Connectivity)

	raw, err := stations.GetByCode(ctx, created.StationCode)
	require.NoError(t, err)
	require.NoError(t, stations.TouchLastSeen(ctx, raw.ID))

	got, err := svc.GetStation(ctx, created.StationCode)
	require.NoError(t, err)
	assert.Equal(t, string(domainStation.StateOnline), got.Connectivity)
}

func TestGetUnknownStationReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetStation(context.Background(), "GHOST-001")
	require.ErrorIs(t, err, domainStation.ErrStationNotFound)
}
