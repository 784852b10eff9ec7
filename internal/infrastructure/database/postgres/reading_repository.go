package postgres

import (
	"context"
	"fmt"
	"time"

	domainReading "iot-fleet-hub/internal/domain/reading"
	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReadingRepository implements reading.Repository on top of GORM.
type ReadingRepository struct {
	db *DB
}

func NewReadingRepository(db *DB) domainReading.Repository {
	return &ReadingRepository{db: db}
}

// RecordUpload inserts the reading and clears the station's pending-update
// flag while refreshing last-seen, all in one transaction. Downstream
// reconciliation assumes the reading and the status change land together, so
// a failure in either statement rolls back both.
func (r *ReadingRepository) RecordUpload(ctx context.Context, rec *domainReading.SensorReading) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()

	dbModel := &models.SensorReadingModel{
		ID:             rec.ID,
		StationID:      rec.StationID,
		Temperature:    rec.Temperature,
		Humidity:       rec.Humidity,
		RSSI:           rec.RSSI,
		BatteryVoltage: rec.BatteryVoltage,
		CapturedAt:     rec.CapturedAt,
		WebTriggered:   rec.WebTriggered,
		CreatedAt:      rec.CreatedAt,
	}

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbModel).Error; err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}

		now := time.Now()
		result := tx.Model(&models.StationStatusModel{}).
			Where("station_id = ?", rec.StationID).
			Updates(map[string]interface{}{
				"status":         string(domainStation.StateOnline),
				"request_update": false,
				"last_seen":      now,
				"updated_at":     now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update station status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainStation.ErrStationNotFound
		}

		return nil
	})

	return err
}

func (r *ReadingRepository) ListByStation(ctx context.Context, stationID uuid.UUID, page, pageSize int) ([]*domainReading.SensorReading, int64, error) {
	var dbModels []models.SensorReadingModel
	var total int64

	db := r.db.DB.WithContext(ctx).
		Model(&models.SensorReadingModel{}).
		Where("station_id = ?", stationID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count readings: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	err := db.Order("captured_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list readings: %w", err)
	}

	readings := make([]*domainReading.SensorReading, len(dbModels))
	for i := range dbModels {
		readings[i] = toReadingEntity(&dbModels[i])
	}

	return readings, total, nil
}

func (r *ReadingRepository) CountByStation(ctx context.Context, stationID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.SensorReadingModel{}).
		Where("station_id = ?", stationID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return total, nil
}

func toReadingEntity(m *models.SensorReadingModel) *domainReading.SensorReading {
	return &domainReading.SensorReading{
		ID:             m.ID,
		StationID:      m.StationID,
		Temperature:    m.Temperature,
		Humidity:       m.Humidity,
		RSSI:           m.RSSI,
		BatteryVoltage: m.BatteryVoltage,
		CapturedAt:     m.CapturedAt,
		WebTriggered:   m.WebTriggered,
		CreatedAt:      m.CreatedAt,
	}
}
