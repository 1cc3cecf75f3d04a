package weather_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmcast/farmcast/internal/weather"
)

// mockProvider is a mock weather provider for testing.
type mockProvider struct {
	mu            sync.Mutex
	snapshotCalls int
	forecastCalls int
	err           error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GetSnapshot(_ context.Context, lat, lon float64) (*weather.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotCalls++

	if m.err != nil {
		return nil, m.err
	}
	temp := 28.0
	return &weather.Snapshot{
		Lat:       lat,
		Lon:       lon,
		Current:   weather.Current{Temperature: &temp, Humidity: 60},
		FetchedAt: time.Now(),
	}, nil
}

func (m *mockProvider) GetForecast(ctx context.Context, lat, lon float64) (*weather.Snapshot, []weather.ForecastDay, error) {
	m.mu.Lock()
	m.forecastCalls++
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return nil, nil, err
	}
	temp := 28.0
	snap := &weather.Snapshot{
		Lat:     lat,
		Lon:     lon,
		Current: weather.Current{Temperature: &temp, Humidity: 60, WeatherCode: 2},
	}
	forecast := []weather.ForecastDay{
		{Date: "2025-06-02", DayName: "Monday", TempMax: 31, Rainfall: 2},
	}
	return snap, forecast, nil
}

func (m *mockProvider) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotCalls, m.forecastCalls
}

// mockGeocoder returns a fixed label or error.
type mockGeocoder struct {
	label string
	err   error
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return m.label, m.err
}

func newTestService(p weather.Provider, g weather.Geocoder) *weather.Service {
	return weather.NewService(weather.ServiceConfig{
		Provider: p,
		Geocoder: g,
		Logger:   zerolog.Nop(),
	})
}

func TestService_GetSnapshot(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider, nil)

	snap, err := service.GetSnapshot(context.Background(), 6.5244, 3.3792)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 6.5244, snap.Lat)
}

func TestService_GetSnapshot_NeverCached(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.GetSnapshot(ctx, 6.5244, 3.3792)
		require.NoError(t, err)
	}

	snapshotCalls, _ := provider.calls()
	assert.Equal(t, 3, snapshotCalls, "every snapshot read must hit the provider")
}

func TestService_GetSnapshot_InvalidCoordinates(t *testing.T) {
	service := newTestService(&mockProvider{}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{name: "NaN latitude", lat: math.NaN(), lon: 3.4},
		{name: "infinite longitude", lat: 6.5, lon: math.Inf(-1)},
		{name: "latitude out of range", lat: 91, lon: 3.4},
		{name: "longitude out of range", lat: 6.5, lon: 181},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.GetSnapshot(ctx, tt.lat, tt.lon)
			assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)
		})
	}
}

func TestService_GetSnapshot_ProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("upstream down")}
	service := newTestService(provider, nil)

	_, err := service.GetSnapshot(context.Background(), 6.5244, 3.3792)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
}

func TestService_GetLocalWeather(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider, &mockGeocoder{label: "Ikeja, Lagos"})

	local, err := service.GetLocalWeather(context.Background(), 6.5244, 3.3792)
	require.NoError(t, err)
	require.NotNil(t, local)

	assert.Equal(t, 28.0, local.Current.Temperature)
	assert.Equal(t, "Partly cloudy", local.Current.Description)
	assert.Equal(t, "03d", local.Current.Icon)
	assert.Equal(t, "Ikeja, Lagos", local.Location)
	require.Len(t, local.Forecast, 1)
	assert.Equal(t, "Monday", local.Forecast[0].DayName)
}

func TestService_GetLocalWeather_CachesNearbyPoints(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider, &mockGeocoder{label: "Ikeja, Lagos"})
	ctx := context.Background()

	_, err := service.GetLocalWeather(ctx, 6.5244, 3.3792)
	require.NoError(t, err)

	// A point in the same grid cell is served from cache.
	_, err = service.GetLocalWeather(ctx, 6.5250, 3.3800)
	require.NoError(t, err)

	_, forecastCalls := provider.calls()
	assert.Equal(t, 1, forecastCalls, "nearby points share one provider call")

	// A distant point misses the cache.
	_, err = service.GetLocalWeather(ctx, 9.0765, 7.3986)
	require.NoError(t, err)

	_, forecastCalls = provider.calls()
	assert.Equal(t, 2, forecastCalls)
}

func TestService_GetLocalWeather_GeocoderDegrades(t *testing.T) {
	tests := []struct {
		name     string
		geocoder weather.Geocoder
	}{
		{name: "nil geocoder", geocoder: nil},
		{name: "geocoder error", geocoder: &mockGeocoder{err: errors.New("rate limited")}},
		{name: "empty label", geocoder: &mockGeocoder{label: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(&mockProvider{}, tt.geocoder)

			local, err := service.GetLocalWeather(context.Background(), 6.5244, 3.3792)
			require.NoError(t, err)
			assert.Equal(t, "Unknown Location", local.Location)
		})
	}
}

func TestService_GetLocalWeather_ProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("upstream down")}
	service := newTestService(provider, nil)

	_, err := service.GetLocalWeather(context.Background(), 6.5244, 3.3792)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, weather.ValidateCoordinates(0, 0))
	assert.NoError(t, weather.ValidateCoordinates(-90, 180))
	assert.Error(t, weather.ValidateCoordinates(90.1, 0))
	assert.Error(t, weather.ValidateCoordinates(0, -180.1))
	assert.Error(t, weather.ValidateCoordinates(math.NaN(), 0))
}

func TestConditionForCode(t *testing.T) {
	c := weather.ConditionForCode(0)
	assert.Equal(t, "Clear sky", c.Description)
	assert.Equal(t, "01d", c.Icon)

	c = weather.ConditionForCode(9999)
	assert.Equal(t, "Unknown", c.Description)
}
