// Package openmeteo provides an Open-Meteo forecast API client.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmcast/farmcast/internal/provider/resilience"
	"github.com/farmcast/farmcast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openmeteo"

	// DefaultBaseURL is the Open-Meteo forecast API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to Open-Meteo).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo forecast API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
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

// GetSnapshot fetches current conditions and a two-day daily series for a
// location. This is the minimal read the alert evaluation needs.
func (c *Client) GetSnapshot(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	url := fmt.Sprintf("%s/forecast?latitude=%.6f&longitude=%.6f"+
		"&current=temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m"+
		"&daily=temperature_2m_max,temperature_2m_min,precipitation_sum"+
		"&forecast_days=2&timezone=auto",
		c.baseURL, lat, lon)

	var resp forecastResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	return c.toSnapshot(lat, lon, &resp), nil
}

// GetForecast fetches current conditions and a six-day daily series with the
// full field set used by the client-facing weather view.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (*weather.Snapshot, []weather.ForecastDay, error) {
	url := fmt.Sprintf("%s/forecast?latitude=%.6f&longitude=%.6f"+
		"&current=temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m"+
		"&daily=temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code,wind_speed_10m_max,relative_humidity_2m_max"+
		"&forecast_days=6&timezone=auto",
		c.baseURL, lat, lon)

	var resp forecastResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, nil, err
	}

	return c.toSnapshot(lat, lon, &resp), c.toForecastDays(&resp), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toSnapshot converts an Open-Meteo response to the domain snapshot.
// Missing series entries stay nil so evaluation can apply its defaults.
func (c *Client) toSnapshot(lat, lon float64, resp *forecastResponse) *weather.Snapshot {
	snap := &weather.Snapshot{
		Lat: lat,
		Lon: lon,
		Current: weather.Current{
			Temperature:   resp.Current.Temperature,
			Humidity:      deref(resp.Current.Humidity),
			Precipitation: deref(resp.Current.Precipitation),
			WindSpeed:     deref(resp.Current.WindSpeed),
			WeatherCode:   int(deref(resp.Current.WeatherCode)),
		},
		FetchedAt: time.Now(),
	}

	for i, date := range resp.Daily.Time {
		snap.Daily = append(snap.Daily, weather.Day{
			Date:             date,
			TempMin:          at(resp.Daily.TempMin, i),
			TempMax:          at(resp.Daily.TempMax, i),
			PrecipitationSum: at(resp.Daily.PrecipitationSum, i),
		})
	}

	return snap
}

// toForecastDays builds the client-facing forecast from tomorrow onward.
func (c *Client) toForecastDays(resp *forecastResponse) []weather.ForecastDay {
	days := make([]weather.ForecastDay, 0, len(resp.Daily.Time))

	for i := 1; i < len(resp.Daily.Time); i++ {
		date, err := time.Parse("2006-01-02", resp.Daily.Time[i])
		if err != nil {
			continue
		}

		tempMin := valueAt(resp.Daily.TempMin, i)
		tempMax := valueAt(resp.Daily.TempMax, i)
		cond := weather.ConditionForCode(int(valueAt(resp.Daily.WeatherCode, i)))

		humidity := valueAt(resp.Daily.HumidityMax, i)
		if humidity == 0 {
			humidity = 50
		}

		days = append(days, weather.ForecastDay{
			Date:        resp.Daily.Time[i],
			DayName:     date.Weekday().String(),
			Temperature: roundHalf(tempMin, tempMax),
			TempMin:     round(tempMin),
			TempMax:     round(tempMax),
			Humidity:    humidity,
			Rainfall:    valueAt(resp.Daily.PrecipitationSum, i),
			Description: cond.Description,
			Icon:        cond.Icon,
			WindSpeed:   valueAt(resp.Daily.WindSpeedMax, i),
		})
	}

	return days
}

func at(series []*float64, i int) *float64 {
	if i < len(series) {
		return series[i]
	}
	return nil
}

func valueAt(series []*float64, i int) float64 {
	return deref(at(series, i))
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}

func roundHalf(a, b float64) float64 {
	return round((a + b) / 2)
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		Precipitation *float64 `json:"precipitation"`
		WeatherCode   *float64 `json:"weather_code"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time             []string   `json:"time"`
		TempMax          []*float64 `json:"temperature_2m_max"`
		TempMin          []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		WeatherCode      []*float64 `json:"weather_code"`
		WindSpeedMax     []*float64 `json:"wind_speed_10m_max"`
		HumidityMax      []*float64 `json:"relative_humidity_2m_max"`
	} `json:"daily"`
}
