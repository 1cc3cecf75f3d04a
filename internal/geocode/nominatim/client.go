// Package nominatim provides reverse geocoding via the OSM Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/farmcast/farmcast/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the Nominatim API base URL.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// userAgent identifies this service to Nominatim, per its usage policy.
	userAgent = "FarmCast/1.0"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to openstreetmap.org).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim reverse geocoding client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// ReverseGeocode resolves coordinates into a human-readable place label,
// preferring "City, State" and falling back through coarser divisions.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/reverse?lat=%.6f&lon=%.6f&format=json", c.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var geo reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return geo.label(), nil
}

// Nominatim API response structures.

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

func (r *reverseResponse) label() string {
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	if city == "" {
		city = r.Address.County
	}

	state := r.Address.State

	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	default:
		return ""
	}
}
