package station

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for the device registry and the
// per-station status/configuration stores. Status and Configuration rows share
// the station's lifecycle and are created together with it.
type Repository interface {
	Create(ctx context.Context, station *Station) error
	GetByID(ctx context.Context, stationID uuid.UUID) (*Station, error)
	GetByCode(ctx context.Context, stationCode string) (*Station, error)
	GetByToken(ctx context.Context, apiToken string) (*Station, error)
	List(ctx context.Context, filter *Filter) ([]*Station, int64, error)
	Deactivate(ctx context.Context, stationID uuid.UUID) error
	Delete(ctx context.Context, stationID uuid.UUID) error

	// NextDistrictSequence returns the next sequence number used to derive a
	// station code for the given district.
	NextDistrictSequence(ctx context.Context, district string) (int, error)

	// SetRequestUpdate raises or lowers the pending-update flag. The flag only
	// goes false through a confirmed device round-trip (data upload or legacy
	// config fetch), never optimistically.
	SetRequestUpdate(ctx context.Context, stationID uuid.UUID, requested bool) error

	// UpdateConfiguration stores new operating parameters and raises the
	// configuration-pending flag in the same statement.
	UpdateConfiguration(ctx context.Context, stationID uuid.UUID, dataInterval, dataCollectionTime int) error

	// ClearConfigurationUpdate lowers the configuration-pending flag after a
	// confirmed delivery to the device.
	ClearConfigurationUpdate(ctx context.Context, stationID uuid.UUID) error

	// TouchLastSeen refreshes last-seen and marks the station online.
	TouchLastSeen(ctx context.Context, stationID uuid.UUID) error
}

// Filter represents filtering options for listing stations.
type Filter struct {
	State    *string
	District *string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
