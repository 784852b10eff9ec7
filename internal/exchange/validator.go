package exchange

import "fmt"

// ValidationError represents a single failed telemetry field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// Accepted telemetry ranges, shared by the pub/sub and legacy HTTP paths so
// both reject identically.
const (
	TemperatureMin = -50.0
	TemperatureMax = 100.0
	HumidityMin    = 0.0
	HumidityMax    = 100.0
	RSSIMin        = -120.0
	RSSIMax        = 0.0
	BatteryMin     = 0.0
	BatteryMax     = 5.0
)

// ValidateTelemetry checks presence and range of every telemetry field and
// returns the full list of violations.
func ValidateTelemetry(p *TelemetryParams) []*ValidationError {
	var errs []*ValidationError

	if p.Temperature == nil {
		errs = append(errs, &ValidationError{Field: "temperature", Message: "temperature is required"})
	} else if *p.Temperature < TemperatureMin || *p.Temperature > TemperatureMax {
		errs = append(errs, &ValidationError{
			Field:   "temperature",
			Message: fmt.Sprintf("temperature must be between %.0f and %.0f", TemperatureMin, TemperatureMax),
		})
	}

	if p.Humidity == nil {
		errs = append(errs, &ValidationError{Field: "humidity", Message: "humidity is required"})
	} else if *p.Humidity < HumidityMin || *p.Humidity > HumidityMax {
		errs = append(errs, &ValidationError{
			Field:   "humidity",
			Message: fmt.Sprintf("humidity must be between %.0f and %.0f", HumidityMin, HumidityMax),
		})
	}

	if p.RSSI == nil {
		errs = append(errs, &ValidationError{Field: "rssi", Message: "rssi is required"})
	} else if *p.RSSI < RSSIMin || *p.RSSI > RSSIMax {
		errs = append(errs, &ValidationError{
			Field:   "rssi",
			Message: fmt.Sprintf("rssi must be between %.0f and %.0f", RSSIMin, RSSIMax),
		})
	}

	if p.BatteryVoltage == nil {
		errs = append(errs, &ValidationError{Field: "battery_voltage", Message: "battery_voltage is required"})
	} else if *p.BatteryVoltage < BatteryMin || *p.BatteryVoltage > BatteryMax {
		errs = append(errs, &ValidationError{
			Field:   "battery_voltage",
			Message: fmt.Sprintf("battery_voltage must be between %.0f and %.0f", BatteryMin, BatteryMax),
		})
	}

	return errs
}
