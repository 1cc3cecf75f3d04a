package models

import (
	"github.com/farmcast/farmcast/internal/advisory"
	"github.com/farmcast/farmcast/internal/weather"
)

// AdvisoryRequest carries the inputs for advisory generation. Weather is
// required; farm context and forecast are optional and degrade to generic
// output when absent.
type AdvisoryRequest struct {
	Weather  *advisory.Weather     `json:"weather"`
	Farm     *advisory.Farm        `json:"farm,omitempty"`
	Forecast []weather.ForecastDay `json:"forecast,omitempty"`
}
