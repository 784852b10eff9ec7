package station

import "errors"

var (
	ErrStationNotFound      = errors.New("station not found")
	ErrStationAlreadyExists = errors.New("station already exists")
	ErrStationInactive      = errors.New("station is inactive")
	ErrConfigNotFound       = errors.New("station configuration not found")
	ErrInvalidState         = errors.New("invalid connectivity state")
)
