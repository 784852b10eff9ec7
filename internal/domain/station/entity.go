package station

import (
	"time"

	"github.com/google/uuid"
)

// Station represents a registered field device (environmental sensor station).
type Station struct {
	ID          uuid.UUID
	StationCode string
	Name        string
	MACAddress  *string
	APIToken    string
	State       string
	District    string
	Latitude    *float64
	Longitude   *float64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Status        *Status
	Configuration *Configuration
}

// ConnectivityState is the reported connectivity of a station.
type ConnectivityState string

const (
	StateOnline      ConnectivityState = "online"
	StateOffline     ConnectivityState = "offline"
	StateMaintenance ConnectivityState = "maintenance"
)

// Status holds the per-station mutable protocol state.
type Status struct {
	StationID     uuid.UUID
	Status        ConnectivityState
	RequestUpdate bool
	LastSeen      *time.Time
	UpdatedAt     time.Time
}

// DefaultDataInterval and DefaultDataCollectionTime apply when a station has
// no configuration row yet.
const (
	DefaultDataInterval       = 3  // minutes between samples
	DefaultDataCollectionTime = 30 // minutes per collection window
)

// Configuration holds the desired operating parameters for a station.
type Configuration struct {
	StationID           uuid.UUID
	DataInterval        int
	DataCollectionTime  int
	ConfigurationUpdate bool
	UpdatedAt           time.Time
}

// IsOnline reports whether the station checked in within the last 5 minutes.
func (s *Status) IsOnline() bool {
	if s.LastSeen == nil {
		return false
	}
	return time.Since(*s.LastSeen) < 5*time.Minute
}
