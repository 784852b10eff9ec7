package station

import (
	"time"

	domainStation "iot-fleet-hub/internal/domain/station"
	domainTasklog "iot-fleet-hub/internal/domain/tasklog"
)

type CreateStationRequest struct {
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	MACAddress *string  `json:"mac_address" validate:"omitempty,mac"`
	State      string   `json:"state" validate:"required,min=2,max=50"`
	District   string   `json:"district" validate:"required,min=2,max=50"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type UpdateConfigurationRequest struct {
	DataInterval       int `json:"data_interval" validate:"required,min=1,max=1440"`
	DataCollectionTime int `json:"data_collection_time" validate:"required,min=1,max=1440"`
}

type StationFilterRequest struct {
	State    *string `form:"state"`
	District *string `form:"district"`
	Active   *bool   `form:"active"`
	Search   string  `form:"search"`
	Page     int     `form:"page" validate:"omitempty,min=1"`
	PageSize int     `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type StationResponse struct {
	ID          string     `json:"id"`
	StationCode string     `json:"station_code"`
	Name        string     `json:"name"`
	MACAddress  *string    `json:"mac_address,omitempty"`
	APIToken    string     `json:"api_token,omitempty"`
	State       string     `json:"state"`
	District    string     `json:"district"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`

	Connectivity        string     `json:"connectivity"`
	RequestUpdate       bool       `json:"request_update"`
	LastSeen            *time.Time `json:"last_seen,omitempty"`
	DataInterval        int        `json:"data_interval"`
	DataCollectionTime  int        `json:"data_collection_time"`
	ConfigurationUpdate bool       `json:"configuration_update"`
}

type StationListResponse struct {
	Stations []*StationResponse `json:"stations"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type ReadingResponse struct {
	ID             string    `json:"id"`
	Temperature    float64   `json:"temperature"`
	Humidity       float64   `json:"humidity"`
	RSSI           int       `json:"rssi"`
	BatteryVoltage float64   `json:"battery_voltage"`
	CapturedAt     time.Time `json:"captured_at"`
	WebTriggered   bool      `json:"web_triggered"`
}

type ReadingListResponse struct {
	Readings []*ReadingResponse `json:"readings"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type TaskLogResponse struct {
	ID             string     `json:"id"`
	Topic          string     `json:"topic"`
	TaskType       string     `json:"task_type"`
	Direction      string     `json:"direction"`
	Status         string     `json:"status"`
	ReceivedAt     time.Time  `json:"received_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ResponseTimeMs *int64     `json:"response_time_ms,omitempty"`
}

// ToStationResponse maps a domain station (with preloaded status and
// configuration) onto the API response shape. The API token is included only
// for freshly created stations; list/get responses blank it.
func ToStationResponse(s *domainStation.Station, includeToken bool) *StationResponse {
	resp := &StationResponse{
		ID:          s.ID.String(),
		StationCode: s.StationCode,
		Name:        s.Name,
		MACAddress:  s.MACAddress,
		State:       s.State,
		District:    s.District,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,

		Connectivity:       string(domainStation.StateOffline),
		DataInterval:       domainStation.DefaultDataInterval,
		DataCollectionTime: domainStation.DefaultDataCollectionTime,
	}

	if includeToken {
		resp.APIToken = s.APIToken
	}
	if s.Status != nil {
		// The stored status only flips on protocol traffic; a station that went
		// quiet still has "online" in its row. Recompute from last-seen, keeping
		// an operator-set maintenance state as-is.
		switch {
		case s.Status.Status == domainStation.StateMaintenance:
			resp.Connectivity = string(domainStation.StateMaintenance)
		case s.Status.IsOnline():
			resp.Connectivity = string(domainStation.StateOnline)
		default:
			resp.Connectivity = string(domainStation.StateOffline)
		}
		resp.RequestUpdate = s.Status.RequestUpdate
		resp.LastSeen = s.Status.LastSeen
	}
	if s.Configuration != nil {
		resp.DataInterval = s.Configuration.DataInterval
		resp.DataCollectionTime = s.Configuration.DataCollectionTime
		resp.ConfigurationUpdate = s.Configuration.ConfigurationUpdate
	}

	return resp
}

func ToTaskLogResponse(e *domainTasklog.Entry) *TaskLogResponse {
	return &TaskLogResponse{
		ID:             e.ID.String(),
		Topic:          e.Topic,
		TaskType:       string(e.TaskType),
		Direction:      string(e.Direction),
		Status:         string(e.Status),
		ReceivedAt:     e.ReceivedAt,
		ProcessedAt:    e.ProcessedAt,
		ResponseTimeMs: e.ResponseTimeMs,
	}
}
