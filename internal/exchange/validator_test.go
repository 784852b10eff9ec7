package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func validParams() *TelemetryParams {
	return &TelemetryParams{
		Temperature:    float(24.5),
		Humidity:       float(63.0),
		RSSI:           float(-72),
		BatteryVoltage: float(3.8),
	}
}

func TestValidateTelemetryAcceptsValidSample(t *testing.T) {
	assert.Empty(t, ValidateTelemetry(validParams()))
}

func TestValidateTelemetryBoundaries(t *testing.T) {
	p := validParams()
	p.Temperature = float(-50)
	p.Humidity = float(0)
	p.RSSI = float(-120)
	p.BatteryVoltage = float(0)
	assert.Empty(t, ValidateTelemetry(p))

	p = validParams()
	p.Temperature = float(100)
	p.Humidity = float(100)
	p.RSSI = float(0)
	p.BatteryVoltage = float(5)
	assert.Empty(t, ValidateTelemetry(p))
}

func TestValidateTelemetryRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TelemetryParams)
		field  string
	}{
		{"humidity above range", func(p *TelemetryParams) { p.Humidity = float(150) }, "humidity"},
		{"humidity below range", func(p *TelemetryParams) { p.Humidity = float(-1) }, "humidity"},
		{"temperature too cold", func(p *TelemetryParams) { p.Temperature = float(-51) }, "temperature"},
		{"temperature too hot", func(p *TelemetryParams) { p.Temperature = float(120) }, "temperature"},
		{"rssi positive", func(p *TelemetryParams) { p.RSSI = float(10) }, "rssi"},
		{"rssi below floor", func(p *TelemetryParams) { p.RSSI = float(-130) }, "rssi"},
		{"battery negative", func(p *TelemetryParams) { p.BatteryVoltage = float(-0.1) }, "battery_voltage"},
		{"battery above range", func(p *TelemetryParams) { p.BatteryVoltage = float(6) }, "battery_voltage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(p)
			errs := ValidateTelemetry(p)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateTelemetryReportsEveryMissingField(t *testing.T) {
	errs := ValidateTelemetry(&TelemetryParams{})
	require.Len(t, errs, 4)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"temperature", "humidity", "rssi", "battery_voltage"}, fields)
}
