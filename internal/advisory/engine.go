package advisory

import (
	"fmt"
	"math"
	"strings"

	"github.com/farmcast/farmcast/internal/weather"
)

// maxPlanDays caps the three-day plan length.
const maxPlanDays = 3

// Build derives a structured advisory from current weather, optional farm
// context, and an optional forecast. The function is deterministic and total:
// absent farm or forecast inputs degrade to empty or generic output, never an
// error.
//
// Risk accumulates monotonically across the rainfall, temperature, and
// humidity checks in that order; each check appends at most one tip, so tip
// order always mirrors evaluation order.
func Build(w Weather, farm *Farm, forecast []weather.ForecastDay, th Thresholds) Advisory {
	tips := make([]string, 0, 3)
	risk := RiskLow

	switch {
	case w.Rainfall >= th.HeavyRainMM:
		risk = risk.Raise(RiskHigh)
		tips = append(tips, "Avoid additional irrigation and open drainage channels.")
	case w.Rainfall >= th.ModerateRainMM:
		risk = risk.Raise(RiskMedium)
		tips = append(tips, "Reduce irrigation frequency and monitor field moisture.")
	default:
		tips = append(tips, "Irrigate based on soil moisture and crop stage.")
	}

	switch {
	case w.Temperature >= th.HeatTempC:
		risk = risk.Raise(RiskHigh)
		tips = append(tips, "Protect crops from heat stress; irrigate early morning.")
	case w.Temperature <= th.ColdTempC:
		risk = risk.Raise(RiskMedium)
		tips = append(tips, "Watch for cold stress and protect sensitive crops at night.")
	}

	if w.Humidity >= th.HighHumidityPct {
		risk = risk.Raise(RiskMedium)
		tips = append(tips, "High humidity can increase fungal risk; improve airflow.")
	}

	return Advisory{
		MainAdvice:       mainAdvice(farm),
		RiskLevel:        risk,
		Tips:             tips,
		IrrigationAdvice: irrigationAdvice(w.Rainfall, th),
		FertilizerAdvice: fertilizerAdvice(w.Rainfall, th),
		ThreeDayPlan:     buildPlan(forecast, th),
		PestAlerts:       pestAlerts(w, th),
	}
}

func mainAdvice(farm *Farm) string {
	cropLine := "for your farm"
	if farm != nil && len(farm.Crops) > 0 {
		cropLine = "for " + strings.Join(farm.Crops, ", ")
	}
	return fmt.Sprintf("Today's advisory %s: monitor moisture, check weather shifts, and prioritize preventive field actions.", cropLine)
}

// irrigationAdvice and fertilizerAdvice are independent single-threshold
// rules over rainfall; they do not interact with the accumulated risk.

func irrigationAdvice(rainfall float64, th Thresholds) string {
	if rainfall > th.ModerateRainMM {
		return "Delay irrigation; recent rainfall likely supports crop water needs."
	}
	return "Plan light irrigation based on soil moisture checks."
}

func fertilizerAdvice(rainfall float64, th Thresholds) string {
	if rainfall >= th.HeavyRainMM {
		return "Avoid fertilizer application during heavy rain conditions."
	}
	return "Apply fertilizer in cooler hours and avoid runoff."
}

// buildPlan maps up to the first three forecast days into per-day guidance,
// each day classified independently of the overall risk level.
func buildPlan(forecast []weather.ForecastDay, th Thresholds) []DayPlan {
	n := len(forecast)
	if n > maxPlanDays {
		n = maxPlanDays
	}

	plan := make([]DayPlan, 0, n)
	for i := 0; i < n; i++ {
		day := forecast[i]

		dayRisk := RiskLow
		switch {
		case day.Rainfall >= th.HeavyRainMM || day.TempMax >= th.HeatTempC:
			dayRisk = RiskHigh
		case day.Rainfall >= th.ModerateRainMM || day.Humidity >= th.HighHumidityPct:
			dayRisk = RiskMedium
		}

		dayName := day.DayName
		if dayName == "" {
			dayName = fmt.Sprintf("Day %d", i+1)
		}

		tempMax := day.TempMax
		if tempMax == 0 {
			tempMax = day.Temperature
		}

		plan = append(plan, DayPlan{
			Day:      i + 1,
			DayName:  dayName,
			Activity: activityFor(dayRisk),
			Reason: fmt.Sprintf("Forecast: rain %.0fmm, humidity %.0f%%, max temp %.0f°C.",
				math.Round(day.Rainfall), math.Round(day.Humidity), math.Round(tempMax)),
			RiskLevel: dayRisk,
		})
	}

	return plan
}

func activityFor(risk Risk) string {
	switch risk {
	case RiskHigh:
		return "Focus on risk mitigation activities"
	case RiskMedium:
		return "Prioritize monitoring and preventive actions"
	default:
		return "Proceed with regular farm operations"
	}
}

// pestAlerts returns the fixed pest-pressure entry iff conditions are
// simultaneously warm and humid.
func pestAlerts(w Weather, th Thresholds) []PestAlert {
	if w.Temperature < th.PestTempC || w.Humidity < th.PestHumidityPct {
		return []PestAlert{}
	}

	return []PestAlert{
		{
			Pest:       "General pest pressure",
			Risk:       RiskMedium,
			Conditions: "Warm and humid weather can increase pest activity.",
			Prevention: []string{
				"Scout fields daily for early pest signs.",
				"Use integrated pest management before infestation rises.",
			},
		},
	}
}
