package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StationRepository implements station.Repository on top of GORM.
type StationRepository struct {
	db *DB
}

func NewStationRepository(db *DB) domainStation.Repository {
	return &StationRepository{db: db}
}

func (r *StationRepository) Create(ctx context.Context, s *domainStation.Station) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()

	dbModel := toStationModel(s)

	// Registry owns the status and configuration rows: they are created in the
	// same transaction as the station itself.
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbModel).Error; err != nil {
			return err
		}

		status := &models.StationStatusModel{
			StationID: dbModel.ID,
			Status:    string(domainStation.StateOffline),
			UpdatedAt: time.Now(),
		}
		if err := tx.Create(status).Error; err != nil {
			return err
		}

		cfg := &models.StationConfigurationModel{
			StationID:          dbModel.ID,
			DataInterval:       domainStation.DefaultDataInterval,
			DataCollectionTime: domainStation.DefaultDataCollectionTime,
			UpdatedAt:          time.Now(),
		}
		return tx.Create(cfg).Error
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domainStation.ErrStationAlreadyExists
		}
		return fmt.Errorf("failed to create station: %w", err)
	}

	return nil
}

func (r *StationRepository) GetByID(ctx context.Context, stationID uuid.UUID) (*domainStation.Station, error) {
	return r.getOne(ctx, "stations.id = ?", stationID)
}

func (r *StationRepository) GetByCode(ctx context.Context, stationCode string) (*domainStation.Station, error) {
	return r.getOne(ctx, "stations.station_code = ?", stationCode)
}

func (r *StationRepository) GetByToken(ctx context.Context, apiToken string) (*domainStation.Station, error) {
	return r.getOne(ctx, "stations.api_token = ?", apiToken)
}

func (r *StationRepository) getOne(ctx context.Context, query string, arg interface{}) (*domainStation.Station, error) {
	var dbModel models.StationModel
	err := r.db.DB.WithContext(ctx).
		Preload("Status").
		Preload("Configuration").
		Where(query, arg).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainStation.ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return toStationEntity(&dbModel), nil
}

func (r *StationRepository) List(ctx context.Context, filter *domainStation.Filter) ([]*domainStation.Station, int64, error) {
	var dbModels []models.StationModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.StationModel{}).
		Preload("Status").
		Preload("Configuration")

	if filter.State != nil {
		db = db.Where("stations.state = ?", *filter.State)
	}
	if filter.District != nil {
		db = db.Where("stations.district = ?", *filter.District)
	}
	if filter.Active != nil {
		db = db.Where("stations.active = ?", *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("stations.station_code LIKE ? OR stations.name LIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stations: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	err := db.Order("stations.station_code ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stations: %w", err)
	}

	stations := make([]*domainStation.Station, len(dbModels))
	for i := range dbModels {
		stations[i] = toStationEntity(&dbModels[i])
	}

	return stations, total, nil
}

func (r *StationRepository) Deactivate(ctx context.Context, stationID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.StationModel{}).
		Where("id = ?", stationID).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate station: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainStation.ErrStationNotFound
	}

	return nil
}

func (r *StationRepository) Delete(ctx context.Context, stationID uuid.UUID) error {
	// Hard delete cascades to status, configuration and readings.
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", stationID).
		Delete(&models.StationModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete station: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainStation.ErrStationNotFound
	}

	return nil
}

func (r *StationRepository) NextDistrictSequence(ctx context.Context, district string) (int, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.StationModel{}).
		Where("district = ?", district).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count district stations: %w", err)
	}

	return int(count) + 1, nil
}

func (r *StationRepository) SetRequestUpdate(ctx context.Context, stationID uuid.UUID, requested bool) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.StationStatusModel{}).
		Where("station_id = ?", stationID).
		Updates(map[string]interface{}{
			"request_update": requested,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set request_update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainStation.ErrStationNotFound
	}

	return nil
}

func (r *StationRepository) UpdateConfiguration(ctx context.Context, stationID uuid.UUID, dataInterval, dataCollectionTime int) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.StationConfigurationModel{}).
		Where("station_id = ?", stationID).
		Updates(map[string]interface{}{
			"data_interval":        dataInterval,
			"data_collection_time": dataCollectionTime,
			"configuration_update": true,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update configuration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainStation.ErrConfigNotFound
	}

	return nil
}

func (r *StationRepository) ClearConfigurationUpdate(ctx context.Context, stationID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.StationConfigurationModel{}).
		Where("station_id = ?", stationID).
		Updates(map[string]interface{}{
			"configuration_update": false,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to clear configuration_update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainStation.ErrConfigNotFound
	}

	return nil
}

func (r *StationRepository) TouchLastSeen(ctx context.Context, stationID uuid.UUID) error {
	now := time.Now()
	return r.db.DB.WithContext(ctx).
		Model(&models.StationStatusModel{}).
		Where("station_id = ?", stationID).
		Updates(map[string]interface{}{
			"status":     string(domainStation.StateOnline),
			"last_seen":  now,
			"updated_at": now,
		}).Error
}

// Helper functions to convert between domain entities and database models

func toStationModel(s *domainStation.Station) *models.StationModel {
	return &models.StationModel{
		ID:          s.ID,
		StationCode: s.StationCode,
		Name:        s.Name,
		MACAddress:  s.MACAddress,
		APIToken:    s.APIToken,
		State:       s.State,
		District:    s.District,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toStationEntity(m *models.StationModel) *domainStation.Station {
	s := &domainStation.Station{
		ID:          m.ID,
		StationCode: m.StationCode,
		Name:        m.Name,
		MACAddress:  m.MACAddress,
		APIToken:    m.APIToken,
		State:       m.State,
		District:    m.District,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.Status != nil {
		s.Status = &domainStation.Status{
			StationID:     m.Status.StationID,
			Status:        domainStation.ConnectivityState(m.Status.Status),
			RequestUpdate: m.Status.RequestUpdate,
			LastSeen:      m.Status.LastSeen,
			UpdatedAt:     m.Status.UpdatedAt,
		}
	}

	if m.Configuration != nil {
		s.Configuration = &domainStation.Configuration{
			StationID:           m.Configuration.StationID,
			DataInterval:        m.Configuration.DataInterval,
			DataCollectionTime:  m.Configuration.DataCollectionTime,
			ConfigurationUpdate: m.Configuration.ConfigurationUpdate,
			UpdatedAt:           m.Configuration.UpdatedAt,
		}
	}

	return s
}
