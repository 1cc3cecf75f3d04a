package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/farmcast/farmcast/internal/api/models"
	"github.com/farmcast/farmcast/internal/api/response"
	"github.com/farmcast/farmcast/internal/device"
)

// DeviceHandler handles device registration endpoints.
type DeviceHandler struct {
	devices *device.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices *device.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register handles POST /v1/devices - register or refresh a device.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Lat == nil || input.Lon == nil {
		response.BadRequest(w, r, "latitude and longitude are required", nil)
		return
	}

	key, err := h.devices.Register(r.Context(), device.Registration{
		Token:         input.Token,
		Lat:           *input.Lat,
		Lon:           *input.Lon,
		Platform:      input.Platform,
		LocationLabel: input.LocationName,
	})
	if err != nil {
		writeDeviceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.DeviceResponse{
		Success:   true,
		DeviceKey: key,
	})
}

// UpdateLocation handles PUT /v1/devices/location - move a registration.
func (h *DeviceHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var input models.DeviceLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Lat == nil || input.Lon == nil {
		response.BadRequest(w, r, "latitude and longitude are required", nil)
		return
	}

	key, err := h.devices.UpdateLocation(r.Context(), device.Registration{
		Token:         input.Token,
		Lat:           *input.Lat,
		Lon:           *input.Lon,
		Platform:      input.Platform,
		LocationLabel: input.LocationName,
	})
	if err != nil {
		writeDeviceError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.DeviceResponse{
		Success:   true,
		DeviceKey: key,
	})
}

// writeDeviceError maps registry errors onto stable client-facing responses.
func writeDeviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, device.ErrInvalidToken):
		response.BadRequest(w, r, "a valid push token is required", nil)
	case errors.Is(err, device.ErrInvalidCoordinates):
		response.BadRequest(w, r, "latitude and longitude are required", nil)
	default:
		response.ServiceUnavailable(w, r, "device registry is temporarily unavailable")
	}
}
