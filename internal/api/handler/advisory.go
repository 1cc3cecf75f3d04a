package handler

import (
	"encoding/json"
	"net/http"

	"github.com/farmcast/farmcast/internal/advisory"
	"github.com/farmcast/farmcast/internal/api/models"
	"github.com/farmcast/farmcast/internal/api/response"
)

// AdvisoryHandler handles advisory generation.
type AdvisoryHandler struct {
	thresholds advisory.Thresholds
}

// NewAdvisoryHandler creates a new AdvisoryHandler.
func NewAdvisoryHandler(thresholds advisory.Thresholds) *AdvisoryHandler {
	if thresholds == (advisory.Thresholds{}) {
		thresholds = advisory.DefaultThresholds()
	}
	return &AdvisoryHandler{thresholds: thresholds}
}

// Generate handles POST /v1/advisory - build a farming advisory from
// weather, optional farm context, and optional forecast.
func (h *AdvisoryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input models.AdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Weather == nil {
		response.BadRequest(w, r, "weather payload is required", nil)
		return
	}

	result := advisory.Build(*input.Weather, input.Farm, input.Forecast, h.thresholds)
	response.JSON(w, r, http.StatusOK, result)
}
