package models

import (
	"time"

	"github.com/google/uuid"
)

type SensorReadingModel struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StationID      uuid.UUID `gorm:"column:station_id;type:uuid;index;not null"`
	Temperature    float64   `gorm:"column:temperature"`
	Humidity       float64   `gorm:"column:humidity"`
	RSSI           int       `gorm:"column:rssi"`
	BatteryVoltage float64   `gorm:"column:battery_voltage"`
	CapturedAt     time.Time `gorm:"column:captured_at;index"`
	WebTriggered   bool      `gorm:"column:web_triggered;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at"`

	Station *StationModel `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE"`
}

func (SensorReadingModel) TableName() string {
	return "sensor_readings"
}
