// Package advisory builds rule-based daily farming advisories from weather
// and farm-profile inputs.
package advisory

// Risk is the ordinal risk classification attached to advisories and
// per-day plans.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// rank orders risks for monotonic accumulation.
func (r Risk) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Raise returns the higher of the two risks. Accumulated risk never
// downgrades once raised.
func (r Risk) Raise(to Risk) Risk {
	if to.rank() > r.rank() {
		return to
	}
	return r
}

// Weather is the advisory input: the conditions the advisory reasons over.
type Weather struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	Description string  `json:"description,omitempty"`
	WindSpeed   float64 `json:"windSpeed,omitempty"`
}

// Farm is the optional farm-profile context.
type Farm struct {
	Crops    []string `json:"crops,omitempty"`
	FarmSize string   `json:"farmSize,omitempty"`
	Season   string   `json:"season,omitempty"`
}

// Advisory is the structured recommendation returned to the client.
// It is a pure derived value, recomputed on every request.
type Advisory struct {
	MainAdvice       string      `json:"mainAdvice"`
	RiskLevel        Risk        `json:"riskLevel"`
	Tips             []string    `json:"tips"`
	IrrigationAdvice string      `json:"irrigationAdvice"`
	FertilizerAdvice string      `json:"fertilizerAdvice"`
	ThreeDayPlan     []DayPlan   `json:"threeDayPlan"`
	PestAlerts       []PestAlert `json:"pestAlerts"`
}

// DayPlan is the per-day activity guidance in the three-day plan.
type DayPlan struct {
	Day       int    `json:"day"`
	DayName   string `json:"dayName"`
	Activity  string `json:"activity"`
	Reason    string `json:"reason"`
	RiskLevel Risk   `json:"riskLevel"`
}

// PestAlert describes elevated pest pressure and how to get ahead of it.
type PestAlert struct {
	Pest       string   `json:"pest"`
	Risk       Risk     `json:"risk"`
	Conditions string   `json:"conditions"`
	Prevention []string `json:"prevention"`
}

// Thresholds are the fixed rule levels the advisory engine evaluates
// against, passed explicitly for deterministic tests.
type Thresholds struct {
	// HeavyRainMM forces high risk and the drainage tip.
	HeavyRainMM float64

	// ModerateRainMM raises risk to medium and drives the irrigation rules.
	ModerateRainMM float64

	// HeatTempC forces high risk and the heat-stress tip.
	HeatTempC float64

	// ColdTempC raises risk to at least medium with the cold-stress tip.
	ColdTempC float64

	// HighHumidityPct raises risk to at least medium with the fungal tip.
	HighHumidityPct float64

	// PestTempC and PestHumidityPct together gate the pest alert.
	PestTempC       float64
	PestHumidityPct float64
}

// DefaultThresholds returns the production rule levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HeavyRainMM:     20,
		ModerateRainMM:  5,
		HeatTempC:       40,
		ColdTempC:       8,
		HighHumidityPct: 85,
		PestTempC:       25,
		PestHumidityPct: 70,
	}
}
