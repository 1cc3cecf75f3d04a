package alert

import (
	"fmt"
	"math"

	"github.com/farmcast/farmcast/internal/weather"
)

// Guard values substituted for missing temperatures so that an absent field
// can never trigger a heat or frost alert.
const (
	noHeatGuard  = -99
	noFrostGuard = 99
)

// Evaluate inspects a snapshot and returns the single highest-precedence
// alert, or nil when no threshold is crossed. Precedence is fixed:
// heat, then frost, then heavy rain, then strong wind. Heat and frost are
// danger-class events and must not be masked by a simultaneously-true but
// lower-urgency condition.
//
// Evaluate is total: missing fields degrade to safe defaults and the result
// is simply "no alert".
func Evaluate(snap *weather.Snapshot, th Thresholds) *Alert {
	if snap == nil {
		return nil
	}

	today := snap.Today()
	current := snap.Current

	todayMax := coalesce(today.TempMax, current.Temperature, noHeatGuard)
	todayMin := coalesce(today.TempMin, current.Temperature, noFrostGuard)
	todayRain := coalesce(today.PrecipitationSum, nil, 0)
	currentRain := safe(current.Precipitation)
	wind := safe(current.WindSpeed)

	if todayMax >= th.HeatTempC {
		return &Alert{
			Type:     TypeHeat,
			Severity: SeverityDanger,
			Title:    "Heat Alert",
			Message: fmt.Sprintf("High temperature expected (%.0f°C). Protect crops and irrigate early.",
				math.Round(todayMax)),
		}
	}

	if todayMin <= th.FrostTempC {
		return &Alert{
			Type:     TypeFrost,
			Severity: SeverityDanger,
			Title:    "Frost Alert",
			Message: fmt.Sprintf("Low temperature risk (%.0f°C). Cover vulnerable crops tonight.",
				math.Round(todayMin)),
		}
	}

	if todayRain >= th.HeavyRainMM || currentRain >= th.HeavyRainMM {
		return &Alert{
			Type:     TypeHeavyRain,
			Severity: SeverityWarning,
			Title:    "Heavy Rain Alert",
			Message: fmt.Sprintf("Heavy rainfall expected (%.0fmm). Ensure field drainage.",
				math.Round(todayRain)),
		}
	}

	if wind >= th.StrongWindKMH {
		return &Alert{
			Type:     TypeStrongWind,
			Severity: SeverityWarning,
			Title:    "Strong Wind Alert",
			Message: fmt.Sprintf("Strong wind expected (%.0f km/h). Secure structures and avoid spraying.",
				math.Round(wind)),
		}
	}

	return nil
}

// coalesce returns the first non-nil value, else the guard.
func coalesce(primary, fallback *float64, guard float64) float64 {
	if primary != nil && !math.IsNaN(*primary) {
		return *primary
	}
	if fallback != nil && !math.IsNaN(*fallback) {
		return *fallback
	}
	return guard
}

// safe maps NaN to 0 so a malformed reading cannot poison a comparison.
func safe(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
