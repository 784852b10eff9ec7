package models

import (
	"time"

	"github.com/google/uuid"
)

type StationModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StationCode string    `gorm:"column:station_code;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	MACAddress  *string   `gorm:"column:mac_address"`
	APIToken    string    `gorm:"column:api_token;uniqueIndex;not null"`
	State       string    `gorm:"column:state"`
	District    string    `gorm:"column:district"`
	Latitude    *float64  `gorm:"column:latitude"`
	Longitude   *float64  `gorm:"column:longitude"`
	Active      bool      `gorm:"column:active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`

	Status        *StationStatusModel        `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE"`
	Configuration *StationConfigurationModel `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE"`
}

func (StationModel) TableName() string {
	return "stations"
}

type StationStatusModel struct {
	StationID     uuid.UUID  `gorm:"column:station_id;type:uuid;primaryKey"`
	Status        string     `gorm:"column:status;default:offline"`
	RequestUpdate bool       `gorm:"column:request_update;default:false"`
	LastSeen      *time.Time `gorm:"column:last_seen"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (StationStatusModel) TableName() string {
	return "station_statuses"
}

type StationConfigurationModel struct {
	StationID           uuid.UUID `gorm:"column:station_id;type:uuid;primaryKey"`
	DataInterval        int       `gorm:"column:data_interval;default:3"`
	DataCollectionTime  int       `gorm:"column:data_collection_time;default:30"`
	ConfigurationUpdate bool      `gorm:"column:configuration_update;default:false"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (StationConfigurationModel) TableName() string {
	return "station_configurations"
}
