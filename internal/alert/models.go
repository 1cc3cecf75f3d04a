// Package alert evaluates weather snapshots against fast-onset risk thresholds.
package alert

// Type identifies a weather alert category. These codes are part of the
// client contract and map to notification channels on the device.
type Type string

const (
	TypeHeavyRain  Type = "heavy_rain"
	TypeFrost      Type = "frost"
	TypeHeat       Type = "heat"
	TypeStrongWind Type = "strong_wind"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Alert is the single notification-worthy condition found in a snapshot.
type Alert struct {
	Type     Type
	Severity Severity
	Title    string
	Message  string
}

// Thresholds are the fixed trigger levels for alert evaluation. They are
// passed explicitly so tests can exercise alternate levels without touching
// process-wide state.
type Thresholds struct {
	// HeavyRainMM triggers a heavy rain alert when today's precipitation
	// sum or the current rate reaches this level (mm).
	HeavyRainMM float64

	// FrostTempC triggers a frost alert when today's minimum temperature
	// falls to this level or below (Celsius).
	FrostTempC float64

	// HeatTempC triggers a heat alert when today's maximum temperature
	// reaches this level (Celsius).
	HeatTempC float64

	// StrongWindKMH triggers a strong wind alert at this wind speed (km/h).
	StrongWindKMH float64
}

// DefaultThresholds returns the production trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeavyRainMM:   20,
		FrostTempC:    5,
		HeatTempC:     40,
		StrongWindKMH: 40,
	}
}
