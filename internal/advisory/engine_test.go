package advisory_test

import (
	"strings"
	"testing"

	"github.com/farmcast/farmcast/internal/advisory"
	"github.com/farmcast/farmcast/internal/weather"
)

func TestBuild_CalmConditions(t *testing.T) {
	th := advisory.DefaultThresholds()

	a := advisory.Build(advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 0}, nil, nil, th)

	if a.RiskLevel != advisory.RiskLow {
		t.Errorf("expected low risk, got %q", a.RiskLevel)
	}
	if len(a.Tips) != 1 {
		t.Fatalf("expected one baseline tip, got %d", len(a.Tips))
	}
	if a.Tips[0] != "Irrigate based on soil moisture and crop stage." {
		t.Errorf("unexpected baseline tip: %q", a.Tips[0])
	}
	if a.IrrigationAdvice != "Plan light irrigation based on soil moisture checks." {
		t.Errorf("unexpected irrigation advice: %q", a.IrrigationAdvice)
	}
	if a.FertilizerAdvice != "Apply fertilizer in cooler hours and avoid runoff." {
		t.Errorf("unexpected fertilizer advice: %q", a.FertilizerAdvice)
	}
	if len(a.ThreeDayPlan) != 0 {
		t.Errorf("expected empty plan without forecast, got %d days", len(a.ThreeDayPlan))
	}
	if len(a.PestAlerts) != 0 {
		t.Errorf("expected no pest alerts, got %d", len(a.PestAlerts))
	}
}

func TestBuild_RiskLevels(t *testing.T) {
	th := advisory.DefaultThresholds()

	tests := []struct {
		name     string
		in       advisory.Weather
		wantRisk advisory.Risk
	}{
		{name: "heavy rain is high", in: advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 25}, wantRisk: advisory.RiskHigh},
		{name: "moderate rain is medium", in: advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 10}, wantRisk: advisory.RiskMedium},
		{name: "heat is high", in: advisory.Weather{Temperature: 41, Humidity: 50, Rainfall: 0}, wantRisk: advisory.RiskHigh},
		{name: "cold is medium", in: advisory.Weather{Temperature: 5, Humidity: 50, Rainfall: 0}, wantRisk: advisory.RiskMedium},
		{name: "humid is medium", in: advisory.Weather{Temperature: 20, Humidity: 90, Rainfall: 0}, wantRisk: advisory.RiskMedium},
		{
			// Heavy rain already set high; humidity must not lower it.
			name:     "risk never downgrades",
			in:       advisory.Weather{Temperature: 20, Humidity: 90, Rainfall: 25},
			wantRisk: advisory.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := advisory.Build(tt.in, nil, nil, th)
			if a.RiskLevel != tt.wantRisk {
				t.Errorf("expected risk %q, got %q", tt.wantRisk, a.RiskLevel)
			}
		})
	}
}

func TestBuild_TipOrder(t *testing.T) {
	th := advisory.DefaultThresholds()

	// Every rule fires: rain tip, then temperature tip, then humidity tip.
	a := advisory.Build(advisory.Weather{Temperature: 41, Humidity: 90, Rainfall: 25}, nil, nil, th)

	if len(a.Tips) != 3 {
		t.Fatalf("expected three tips, got %d: %v", len(a.Tips), a.Tips)
	}
	if !strings.Contains(a.Tips[0], "drainage") {
		t.Errorf("expected rain tip first, got %q", a.Tips[0])
	}
	if !strings.Contains(a.Tips[1], "heat stress") {
		t.Errorf("expected heat tip second, got %q", a.Tips[1])
	}
	if !strings.Contains(a.Tips[2], "fungal") {
		t.Errorf("expected humidity tip last, got %q", a.Tips[2])
	}
}

func TestBuild_MainAdvice(t *testing.T) {
	th := advisory.DefaultThresholds()
	in := advisory.Weather{Temperature: 20, Humidity: 50}

	a := advisory.Build(in, nil, nil, th)
	if !strings.Contains(a.MainAdvice, "for your farm") {
		t.Errorf("expected generic advice without farm context, got %q", a.MainAdvice)
	}

	farm := &advisory.Farm{Crops: []string{"maize", "cassava"}}
	a = advisory.Build(in, farm, nil, th)
	if !strings.Contains(a.MainAdvice, "for maize, cassava") {
		t.Errorf("expected crop names in advice, got %q", a.MainAdvice)
	}

	// Empty crop list degrades like no farm at all.
	a = advisory.Build(in, &advisory.Farm{}, nil, th)
	if !strings.Contains(a.MainAdvice, "for your farm") {
		t.Errorf("expected generic advice for empty crop list, got %q", a.MainAdvice)
	}
}

func TestBuild_IrrigationAndFertilizerRules(t *testing.T) {
	th := advisory.DefaultThresholds()

	// Rainfall above the moderate level delays irrigation.
	a := advisory.Build(advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 6}, nil, nil, th)
	if !strings.Contains(a.IrrigationAdvice, "Delay irrigation") {
		t.Errorf("expected delayed irrigation, got %q", a.IrrigationAdvice)
	}
	if !strings.Contains(a.FertilizerAdvice, "Apply fertilizer") {
		t.Errorf("expected normal fertilizer advice below heavy rain, got %q", a.FertilizerAdvice)
	}

	// Rainfall exactly at the moderate level does not delay irrigation.
	a = advisory.Build(advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 5}, nil, nil, th)
	if !strings.Contains(a.IrrigationAdvice, "Plan light irrigation") {
		t.Errorf("expected light irrigation at the boundary, got %q", a.IrrigationAdvice)
	}

	// Heavy rain blocks fertilizer application.
	a = advisory.Build(advisory.Weather{Temperature: 20, Humidity: 50, Rainfall: 20}, nil, nil, th)
	if !strings.Contains(a.FertilizerAdvice, "Avoid fertilizer") {
		t.Errorf("expected fertilizer blocked in heavy rain, got %q", a.FertilizerAdvice)
	}
}

func TestBuild_ThreeDayPlan(t *testing.T) {
	th := advisory.DefaultThresholds()
	in := advisory.Weather{Temperature: 20, Humidity: 50}

	day := func(name string, rain, humidity, tempMax float64) weather.ForecastDay {
		return weather.ForecastDay{DayName: name, Rainfall: rain, Humidity: humidity, TempMax: tempMax}
	}

	tests := []struct {
		name     string
		forecast []weather.ForecastDay
		wantLen  int
	}{
		{name: "nil forecast", forecast: nil, wantLen: 0},
		{name: "one day", forecast: []weather.ForecastDay{day("Monday", 0, 50, 25)}, wantLen: 1},
		{
			name: "caps at three days",
			forecast: []weather.ForecastDay{
				day("Monday", 0, 50, 25), day("Tuesday", 0, 50, 25), day("Wednesday", 0, 50, 25),
				day("Thursday", 0, 50, 25), day("Friday", 0, 50, 25),
			},
			wantLen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := advisory.Build(in, nil, tt.forecast, th)
			if len(a.ThreeDayPlan) != tt.wantLen {
				t.Errorf("expected %d plan days, got %d", tt.wantLen, len(a.ThreeDayPlan))
			}
		})
	}
}

func TestBuild_PlanDayClassification(t *testing.T) {
	th := advisory.DefaultThresholds()
	in := advisory.Weather{Temperature: 20, Humidity: 50}

	forecast := []weather.ForecastDay{
		{DayName: "Monday", Rainfall: 25, Humidity: 60, TempMax: 30},  // heavy rain: high
		{DayName: "Tuesday", Rainfall: 8, Humidity: 60, TempMax: 28},  // moderate rain: medium
		{DayName: "Wednesday", Rainfall: 0, Humidity: 50, TempMax: 26}, // calm: low
	}

	a := advisory.Build(in, nil, forecast, th)
	if len(a.ThreeDayPlan) != 3 {
		t.Fatalf("expected three plan days, got %d", len(a.ThreeDayPlan))
	}

	wantRisks := []advisory.Risk{advisory.RiskHigh, advisory.RiskMedium, advisory.RiskLow}
	wantActivities := []string{
		"Focus on risk mitigation activities",
		"Prioritize monitoring and preventive actions",
		"Proceed with regular farm operations",
	}
	for i, p := range a.ThreeDayPlan {
		if p.Day != i+1 {
			t.Errorf("day %d: expected index %d, got %d", i, i+1, p.Day)
		}
		if p.RiskLevel != wantRisks[i] {
			t.Errorf("day %d: expected risk %q, got %q", i, wantRisks[i], p.RiskLevel)
		}
		if p.Activity != wantActivities[i] {
			t.Errorf("day %d: expected activity %q, got %q", i, wantActivities[i], p.Activity)
		}
		if !strings.HasPrefix(p.Reason, "Forecast: rain ") {
			t.Errorf("day %d: unexpected reason %q", i, p.Reason)
		}
	}

	if a.ThreeDayPlan[0].Reason != "Forecast: rain 25mm, humidity 60%, max temp 30°C." {
		t.Errorf("unexpected reason text: %q", a.ThreeDayPlan[0].Reason)
	}
}

func TestBuild_PlanDayNameFallback(t *testing.T) {
	th := advisory.DefaultThresholds()

	forecast := []weather.ForecastDay{{Rainfall: 0, Humidity: 50, Temperature: 24}}
	a := advisory.Build(advisory.Weather{Temperature: 20, Humidity: 50}, nil, forecast, th)

	if len(a.ThreeDayPlan) != 1 {
		t.Fatalf("expected one plan day, got %d", len(a.ThreeDayPlan))
	}
	if a.ThreeDayPlan[0].DayName != "Day 1" {
		t.Errorf("expected fallback day name, got %q", a.ThreeDayPlan[0].DayName)
	}
	// Missing max temp falls back to the day's temperature reading.
	if !strings.Contains(a.ThreeDayPlan[0].Reason, "max temp 24°C") {
		t.Errorf("expected temperature fallback in reason, got %q", a.ThreeDayPlan[0].Reason)
	}
}

func TestBuild_PestAlerts(t *testing.T) {
	th := advisory.DefaultThresholds()

	tests := []struct {
		name      string
		in        advisory.Weather
		wantAlert bool
	}{
		{name: "warm and humid", in: advisory.Weather{Temperature: 25, Humidity: 70}, wantAlert: true},
		{name: "warm but dry", in: advisory.Weather{Temperature: 30, Humidity: 50}, wantAlert: false},
		{name: "humid but cool", in: advisory.Weather{Temperature: 20, Humidity: 90}, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := advisory.Build(tt.in, nil, nil, th)
			if tt.wantAlert {
				if len(a.PestAlerts) != 1 {
					t.Fatalf("expected one pest alert, got %d", len(a.PestAlerts))
				}
				p := a.PestAlerts[0]
				if p.Pest != "General pest pressure" {
					t.Errorf("unexpected pest name: %q", p.Pest)
				}
				if p.Risk != advisory.RiskMedium {
					t.Errorf("expected medium pest risk, got %q", p.Risk)
				}
				if len(p.Prevention) != 2 {
					t.Errorf("expected two prevention steps, got %d", len(p.Prevention))
				}
			} else if len(a.PestAlerts) != 0 {
				t.Errorf("expected no pest alerts, got %d", len(a.PestAlerts))
			}
		})
	}
}

func TestRisk_Raise(t *testing.T) {
	if got := advisory.RiskLow.Raise(advisory.RiskHigh); got != advisory.RiskHigh {
		t.Errorf("expected raise to high, got %q", got)
	}
	if got := advisory.RiskHigh.Raise(advisory.RiskMedium); got != advisory.RiskHigh {
		t.Errorf("expected high to stay high, got %q", got)
	}
	if got := advisory.RiskMedium.Raise(advisory.RiskMedium); got != advisory.RiskMedium {
		t.Errorf("expected medium to stay medium, got %q", got)
	}
}
