package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/farmcast/farmcast/internal/api/response"
	"github.com/farmcast/farmcast/internal/weather"
)

// WeatherHandler handles the client-facing weather endpoint.
type WeatherHandler struct {
	weather *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{weather: svc}
}

// GetWeather handles GET /v1/weather?lat=..&lon=.. - current conditions,
// forecast, and resolved location for a coordinate.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "latitude and longitude are required", nil)
		return
	}

	local, err := h.weather.GetLocalWeather(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "latitude and longitude are required", nil)
			return
		}
		response.ServiceUnavailable(w, r, "weather data is temporarily unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, local)
}
