package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskLogModel struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	StationID      *uuid.UUID `gorm:"column:station_id;type:uuid;index"`
	StationCode    string     `gorm:"column:station_code;index"`
	Topic          string     `gorm:"column:topic"`
	TaskType       string     `gorm:"column:task_type;index"`
	Direction      string     `gorm:"column:direction"`
	Status         string     `gorm:"column:status"`
	ReceivedAt     time.Time  `gorm:"column:received_at"`
	ProcessedAt    *time.Time `gorm:"column:processed_at"`
	ResponseTimeMs *int64     `gorm:"column:response_time_ms"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (TaskLogModel) TableName() string {
	return "task_logs"
}
