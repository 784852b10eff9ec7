package postgres

import (
	"context"
	"fmt"
	"time"

	domainTasklog "iot-fleet-hub/internal/domain/tasklog"
	"iot-fleet-hub/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

// TaskLogRepository implements tasklog.Repository. Inserts only; entries are
// never updated once written.
type TaskLogRepository struct {
	db *DB
}

func NewTaskLogRepository(db *DB) domainTasklog.Repository {
	return &TaskLogRepository{db: db}
}

func (r *TaskLogRepository) Append(ctx context.Context, entry *domainTasklog.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	dbModel := &models.TaskLogModel{
		ID:             entry.ID,
		StationID:      entry.StationID,
		StationCode:    entry.StationCode,
		Topic:          entry.Topic,
		TaskType:       string(entry.TaskType),
		Direction:      string(entry.Direction),
		Status:         string(entry.Status),
		ReceivedAt:     entry.ReceivedAt,
		ProcessedAt:    entry.ProcessedAt,
		ResponseTimeMs: entry.ResponseTimeMs,
		CreatedAt:      entry.CreatedAt,
	}

	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to append task log: %w", err)
	}

	return nil
}

func (r *TaskLogRepository) ListByStation(ctx context.Context, stationID uuid.UUID, limit int) ([]*domainTasklog.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbModels []models.TaskLogModel
	err := r.db.DB.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("received_at DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list task logs: %w", err)
	}

	entries := make([]*domainTasklog.Entry, len(dbModels))
	for i := range dbModels {
		m := &dbModels[i]
		entries[i] = &domainTasklog.Entry{
			ID:             m.ID,
			StationID:      m.StationID,
			StationCode:    m.StationCode,
			Topic:          m.Topic,
			TaskType:       domainTasklog.TaskType(m.TaskType),
			Direction:      domainTasklog.Direction(m.Direction),
			Status:         domainTasklog.Status(m.Status),
			ReceivedAt:     m.ReceivedAt,
			ProcessedAt:    m.ProcessedAt,
			ResponseTimeMs: m.ResponseTimeMs,
			CreatedAt:      m.CreatedAt,
		}
	}

	return entries, nil
}
