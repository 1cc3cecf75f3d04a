package models

// DeviceRegisterRequest registers a device for weather alerts, or refreshes
// an existing registration. Coordinates are pointers so an absent field is
// distinguishable from a legitimate 0 and can be rejected.
type DeviceRegisterRequest struct {
	Token        string   `json:"token"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Platform     string   `json:"platform,omitempty"`
	LocationName string   `json:"locationName,omitempty"`
}

// DeviceLocationRequest moves an existing registration to new coordinates.
type DeviceLocationRequest struct {
	Token        string   `json:"token"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	LocationName string   `json:"locationName,omitempty"`
	Platform     string   `json:"platform,omitempty"`
}

// DeviceResponse acknowledges a registration or location update.
type DeviceResponse struct {
	Success   bool   `json:"success"`
	DeviceKey string `json:"deviceKey"`
}
