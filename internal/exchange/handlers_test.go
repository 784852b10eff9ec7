package exchange

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"iot-fleet-hub/internal/domain/reading"
	"iot-fleet-hub/internal/domain/station"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStationRepo struct {
	stations map[string]*station.Station

	clearedConfigFlag []uuid.UUID
	touchedLastSeen   []uuid.UUID
	setRequestUpdate  map[uuid.UUID]bool
}

func newFakeStationRepo(stations ...*station.Station) *fakeStationRepo {
	repo := &fakeStationRepo{
		stations:         make(map[string]*station.Station),
		setRequestUpdate: make(map[uuid.UUID]bool),
	}
	for _, s := range stations {
		repo.stations[s.StationCode] = s
	}
	return repo
}

func (r *fakeStationRepo) Create(_ context.Context, s *station.Station) error {
	r.stations[s.StationCode] = s
	return nil
}

func (r *fakeStationRepo) GetByID(_ context.Context, id uuid.UUID) (*station.Station, error) {
	for _, s := range r.stations {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, station.ErrStationNotFound
}

func (r *fakeStationRepo) GetByCode(_ context.Context, code string) (*station.Station, error) {
	if s, ok := r.stations[code]; ok {
		return s, nil
	}
	return nil, station.ErrStationNotFound
}

func (r *fakeStationRepo) GetByToken(_ context.Context, token string) (*station.Station, error) {
	for _, s := range r.stations {
		if s.APIToken == token {
			return s, nil
		}
	}
	return nil, station.ErrStationNotFound
}

func (r *fakeStationRepo) List(_ context.Context, _ *station.Filter) ([]*station.Station, int64, error) {
	return nil, 0, nil
}

func (r *fakeStationRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }
func (r *fakeStationRepo) Delete(_ context.Context, _ uuid.UUID) error    { return nil }

func (r *fakeStationRepo) NextDistrictSequence(_ context.Context, _ string) (int, error) {
	return 1, nil
}

func (r *fakeStationRepo) SetRequestUpdate(_ context.Context, id uuid.UUID, requested bool) error {
	r.setRequestUpdate[id] = requested
	return nil
}

func (r *fakeStationRepo) UpdateConfiguration(_ context.Context, _ uuid.UUID, _, _ int) error {
	return nil
}

func (r *fakeStationRepo) ClearConfigurationUpdate(_ context.Context, id uuid.UUID) error {
	r.clearedConfigFlag = append(r.clearedConfigFlag, id)
	for _, s := range r.stations {
		if s.ID == id && s.Configuration != nil {
			s.Configuration.ConfigurationUpdate = false
		}
	}
	return nil
}

func (r *fakeStationRepo) TouchLastSeen(_ context.Context, id uuid.UUID) error {
	r.touchedLastSeen = append(r.touchedLastSeen, id)
	return nil
}

type fakeReadingRepo struct {
	recorded []*reading.SensorReading
	err      error
}

func (r *fakeReadingRepo) RecordUpload(_ context.Context, rec *reading.SensorReading) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, rec)
	return nil
}

func (r *fakeReadingRepo) ListByStation(_ context.Context, _ uuid.UUID, _, _ int) ([]*reading.SensorReading, int64, error) {
	return r.recorded, int64(len(r.recorded)), nil
}

func (r *fakeReadingRepo) CountByStation(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(r.recorded)), nil
}

func testStation(code string, requestUpdate, configUpdate bool) *station.Station {
	id := uuid.New()
	return &station.Station{
		ID:          id,
		StationCode: code,
		Name:        "Test Station " + code,
		APIToken:    "token-" + code,
		Active:      true,
		Status: &station.Status{
			StationID:     id,
			Status:        station.StateOnline,
			RequestUpdate: requestUpdate,
		},
		Configuration: &station.Configuration{
			StationID:           id,
			DataInterval:        5,
			DataCollectionTime:  60,
			ConfigurationUpdate: configUpdate,
		},
	}
}

func innerReply(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	inner, ok := payload["reply"].(map[string]interface{})
	require.True(t, ok, "payload missing reply object")
	return inner
}

func TestHeartbeatReturnsFlagsVerbatim(t *testing.T) {
	st := testStation("KLG-001", true, true)
	handler := NewHeartbeatHandler(newFakeStationRepo(st))
	handler.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

	reply := handler.Handle(context.Background(), "KLG-001", nil)

	assert.Equal(t, true, reply.Payload["success"])
	inner := innerReply(t, reply.Payload)
	assert.Equal(t, "2026-03-14 09:30:00", inner["current_date"])
	assert.Equal(t, true, inner["request_update"])
	assert.Equal(t, true, inner["configuration_update"])
	require.NotNil(t, reply.StationID)
	assert.Equal(t, st.ID, *reply.StationID)
}

func TestHeartbeatUnknownStationReturnsFalseFlags(t *testing.T) {
	handler := NewHeartbeatHandler(newFakeStationRepo())

	var reply Reply
	assert.NotPanics(t, func() {
		reply = handler.Handle(context.Background(), "NOPE-999", nil)
	})

	assert.Equal(t, true, reply.Payload["success"])
	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["request_update"])
	assert.Equal(t, false, inner["configuration_update"])
	assert.Nil(t, reply.StationID)
}

func TestHeartbeatInactiveStationReturnsFalseFlags(t *testing.T) {
	st := testStation("KLG-002", true, true)
	st.Active = false
	handler := NewHeartbeatHandler(newFakeStationRepo(st))

	reply := handler.Handle(context.Background(), "KLG-002", nil)

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["request_update"])
	assert.Equal(t, false, inner["configuration_update"])
}

func TestConfigReturnsStoredParameters(t *testing.T) {
	st := testStation("KLG-001", false, false)
	repo := newFakeStationRepo(st)
	handler := NewConfigHandler(repo)

	reply := handler.Handle(context.Background(), "KLG-001", nil)

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, true, inner["success"])
	assert.Equal(t, 5, inner["data_interval"])
	assert.Equal(t, 60, inner["data_collection_time"])

	// No pending flag: the confirmation hook only refreshes last-seen.
	require.NotNil(t, reply.OnPublished)
	reply.OnPublished(context.Background())
	assert.Empty(t, repo.clearedConfigFlag)
	require.Len(t, repo.touchedLastSeen, 1)
	assert.Equal(t, st.ID, repo.touchedLastSeen[0])
}

func TestConfigUnknownStationReturnsDefaults(t *testing.T) {
	handler := NewConfigHandler(newFakeStationRepo())

	reply := handler.Handle(context.Background(), "NOPE-999", nil)

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, station.DefaultDataInterval, inner["data_interval"])
	assert.Equal(t, station.DefaultDataCollectionTime, inner["data_collection_time"])
}

func TestConfigClearsPendingFlagOnlyAfterPublish(t *testing.T) {
	st := testStation("KLG-001", false, true)
	repo := newFakeStationRepo(st)
	handler := NewConfigHandler(repo)

	reply := handler.Handle(context.Background(), "KLG-001", nil)

	// Handle itself must not clear the flag.
	assert.Empty(t, repo.clearedConfigFlag)
	require.NotNil(t, reply.OnPublished)

	reply.OnPublished(context.Background())
	require.Len(t, repo.clearedConfigFlag, 1)
	assert.Equal(t, st.ID, repo.clearedConfigFlag[0])
	assert.False(t, st.Configuration.ConfigurationUpdate)
}

func TestConfigRefreshesLastSeenAfterPublish(t *testing.T) {
	st := testStation("KLG-001", false, true)
	repo := newFakeStationRepo(st)
	handler := NewConfigHandler(repo)

	reply := handler.Handle(context.Background(), "KLG-001", nil)

	assert.Empty(t, repo.touchedLastSeen)
	require.NotNil(t, reply.OnPublished)

	reply.OnPublished(context.Background())
	require.Len(t, repo.touchedLastSeen, 1)
	assert.Equal(t, st.ID, repo.touchedLastSeen[0])
}

func TestConfigUnknownStationHasNoConfirmationHook(t *testing.T) {
	handler := NewConfigHandler(newFakeStationRepo())

	reply := handler.Handle(context.Background(), "NOPE-999", nil)

	assert.Nil(t, reply.OnPublished)
}

func dataPayload(t *testing.T, temperature, humidity, rssi, battery float64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"params": map[string]interface{}{
			"temperature":     temperature,
			"humidity":        humidity,
			"rssi":            rssi,
			"battery_voltage": battery,
		},
	})
	require.NoError(t, err)
	return body
}

func TestDataUploadRecordsReading(t *testing.T) {
	st := testStation("KLG-001", true, false)
	readings := &fakeReadingRepo{}
	handler := NewDataUploadHandler(newFakeStationRepo(st), readings)
	capturedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return capturedAt }

	reply := handler.Handle(context.Background(), "KLG-001", dataPayload(t, 28.4, 71.2, -67, 3.92))

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, true, inner["success"])

	require.Len(t, readings.recorded, 1)
	rec := readings.recorded[0]
	assert.Equal(t, st.ID, rec.StationID)
	assert.Equal(t, 28.4, rec.Temperature)
	assert.Equal(t, 71.2, rec.Humidity)
	assert.Equal(t, -67, rec.RSSI)
	assert.Equal(t, 3.92, rec.BatteryVoltage)
	// The pub/sub path stamps server receipt time, never device time.
	assert.Equal(t, capturedAt, rec.CapturedAt)
	assert.False(t, rec.WebTriggered)
}

func TestDataUploadRejectsOutOfRangeValues(t *testing.T) {
	st := testStation("KLG-001", false, false)
	readings := &fakeReadingRepo{}
	handler := NewDataUploadHandler(newFakeStationRepo(st), readings)

	reply := handler.Handle(context.Background(), "KLG-001", dataPayload(t, 28.4, 150, -67, 3.92))

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["success"])
	assert.True(t, reply.Failed)
	assert.Empty(t, readings.recorded)
}

func TestDataUploadMalformedPayloadDoesNotInsert(t *testing.T) {
	st := testStation("KLG-001", false, false)
	readings := &fakeReadingRepo{}
	handler := NewDataUploadHandler(newFakeStationRepo(st), readings)

	var reply Reply
	assert.NotPanics(t, func() {
		reply = handler.Handle(context.Background(), "KLG-001", []byte("not-json"))
	})

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["success"])
	assert.Empty(t, readings.recorded)
}

func TestDataUploadUnknownStationDoesNotInsert(t *testing.T) {
	readings := &fakeReadingRepo{}
	handler := NewDataUploadHandler(newFakeStationRepo(), readings)

	reply := handler.Handle(context.Background(), "NOPE-999", dataPayload(t, 20, 50, -60, 3.7))

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["success"])
	assert.Empty(t, readings.recorded)
}

func TestDataUploadStorageFailureStillReplies(t *testing.T) {
	st := testStation("KLG-001", false, false)
	readings := &fakeReadingRepo{err: assert.AnError}
	handler := NewDataUploadHandler(newFakeStationRepo(st), readings)

	var reply Reply
	assert.NotPanics(t, func() {
		reply = handler.Handle(context.Background(), "KLG-001", dataPayload(t, 20, 50, -60, 3.7))
	})

	inner := innerReply(t, reply.Payload)
	assert.Equal(t, false, inner["success"])
	require.NotNil(t, reply.StationID)
}
