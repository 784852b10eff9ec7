package station

import (
	"context"
	"fmt"
	"strings"

	domainReading "iot-fleet-hub/internal/domain/reading"
	domainStation "iot-fleet-hub/internal/domain/station"
	domainTasklog "iot-fleet-hub/internal/domain/tasklog"
	"iot-fleet-hub/internal/logger"
	appErrors "iot-fleet-hub/pkg/errors"
	"iot-fleet-hub/pkg/utils"

	"go.uber.org/zap"
)

// Service implements operator-facing station registry use cases.
type Service struct {
	stationRepo domainStation.Repository
	readingRepo domainReading.Repository
	taskLogRepo domainTasklog.Repository
}

func NewService(stationRepo domainStation.Repository, readingRepo domainReading.Repository, taskLogRepo domainTasklog.Repository) *Service {
	return &Service{
		stationRepo: stationRepo,
		readingRepo: readingRepo,
		taskLogRepo: taskLogRepo,
	}
}

// CreateStation registers a new station. The station code is derived from the
// district sequence and the API token is generated server-side; the token is
// returned once, in this response only.
func (s *Service) CreateStation(ctx context.Context, req *CreateStationRequest) (*StationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	seq, err := s.stationRepo.NextDistrictSequence(ctx, req.District)
	if err != nil {
		return nil, err
	}
	stationCode := DeriveStationCode(req.District, seq)

	token, err := utils.GenerateAPIToken()
	if err != nil {
		return nil, err
	}

	station := &domainStation.Station{
		StationCode: stationCode,
		Name:        req.Name,
		MACAddress:  req.MACAddress,
		APIToken:    token,
		State:       req.State,
		District:    req.District,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Active:      true,
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, err
	}

	created, err := s.stationRepo.GetByID(ctx, station.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Station registered",
		zap.String("station_id", created.ID.String()),
		zap.String("station_code", created.StationCode),
		zap.String("district", created.District),
		zap.String("event", "station_created"),
	)

	return ToStationResponse(created, true), nil
}

func (s *Service) GetStation(ctx context.Context, stationCode string) (*StationResponse, error) {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return nil, err
	}

	return ToStationResponse(station, false), nil
}

func (s *Service) ListStations(ctx context.Context, filter *StationFilterRequest) (*StationListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	stations, total, err := s.stationRepo.List(ctx, &domainStation.Filter{
		State:    filter.State,
		District: filter.District,
		Active:   filter.Active,
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]*StationResponse, len(stations))
	for i, station := range stations {
		responses[i] = ToStationResponse(station, false)
	}

	return &StationListResponse{
		Stations: responses,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// UpdateConfiguration stores new operating parameters and raises the
// configuration-pending flag. The flag stays raised until the device confirms
// delivery through a configuration exchange.
func (s *Service) UpdateConfiguration(ctx context.Context, stationCode string, req *UpdateConfigurationRequest) (*StationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return nil, err
	}

	if err := s.stationRepo.UpdateConfiguration(ctx, station.ID, req.DataInterval, req.DataCollectionTime); err != nil {
		return nil, err
	}

	logger.Info("Station configuration updated",
		zap.String("station_code", stationCode),
		zap.Int("data_interval", req.DataInterval),
		zap.Int("data_collection_time", req.DataCollectionTime),
		zap.String("event", "configuration_updated"),
	)

	return s.GetStation(ctx, stationCode)
}

// RequestUpdate raises the pending-update flag so the device performs an
// out-of-cycle data upload on its next check-in.
func (s *Service) RequestUpdate(ctx context.Context, stationCode string) error {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return err
	}
	if !station.Active {
		return domainStation.ErrStationInactive
	}

	if err := s.stationRepo.SetRequestUpdate(ctx, station.ID, true); err != nil {
		return err
	}

	logger.Info("On-demand update requested",
		zap.String("station_code", stationCode),
		zap.String("event", "update_requested"),
	)

	return nil
}

// DeactivateStation takes a station out of all protocol interactions without
// deleting its readings.
func (s *Service) DeactivateStation(ctx context.Context, stationCode string) error {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return err
	}

	if err := s.stationRepo.Deactivate(ctx, station.ID); err != nil {
		return err
	}

	logger.Info("Station deactivated",
		zap.String("station_code", stationCode),
		zap.String("event", "station_deactivated"),
	)

	return nil
}

// PurgeStation removes the station and, by cascade, its status, configuration
// and readings. Deactivation is the normal retirement path; purge exists for
// stations registered in error.
func (s *Service) PurgeStation(ctx context.Context, stationCode string) error {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return err
	}

	if err := s.stationRepo.Delete(ctx, station.ID); err != nil {
		return err
	}

	logger.Info("Station purged",
		zap.String("station_code", stationCode),
		zap.String("event", "station_purged"),
	)

	return nil
}

func (s *Service) ListReadings(ctx context.Context, stationCode string, page, pageSize int) (*ReadingListResponse, error) {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 500 {
		pageSize = 500
	}

	readings, total, err := s.readingRepo.ListByStation(ctx, station.ID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]*ReadingResponse, len(readings))
	for i, r := range readings {
		responses[i] = &ReadingResponse{
			ID:             r.ID.String(),
			Temperature:    r.Temperature,
			Humidity:       r.Humidity,
			RSSI:           r.RSSI,
			BatteryVoltage: r.BatteryVoltage,
			CapturedAt:     r.CapturedAt,
			WebTriggered:   r.WebTriggered,
		}
	}

	return &ReadingListResponse{
		Readings: responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *Service) ListTaskLogs(ctx context.Context, stationCode string, limit int) ([]*TaskLogResponse, error) {
	station, err := s.stationRepo.GetByCode(ctx, stationCode)
	if err != nil {
		return nil, err
	}

	entries, err := s.taskLogRepo.ListByStation(ctx, station.ID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*TaskLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToTaskLogResponse(e)
	}

	return responses, nil
}

// DeriveStationCode builds a human-meaningful station code from the district
// name and its registration sequence, e.g. "KLG-004".
func DeriveStationCode(district string, sequence int) string {
	prefix := strings.ToUpper(district)
	prefix = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, prefix)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "STN"
	}

	return fmt.Sprintf("%s-%03d", prefix, sequence)
}
