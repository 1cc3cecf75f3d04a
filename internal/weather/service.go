package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetSnapshot fetches current conditions plus a short daily series.
	GetSnapshot(ctx context.Context, lat, lon float64) (*Snapshot, error)

	// GetForecast fetches current conditions plus the multi-day forecast
	// used by the client-facing weather view.
	GetForecast(ctx context.Context, lat, lon float64) (*Snapshot, []ForecastDay, error)

	// Name returns the provider name for logging.
	Name() string
}

// Geocoder resolves coordinates into a human-readable location label.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Geocoder resolves location labels for the client-facing view.
	// Optional; a nil geocoder degrades to a placeholder label.
	Geocoder Geocoder

	// Logger for service operations.
	Logger zerolog.Logger

	// LocalCacheTTL is how long to cache the client-facing weather view
	// (default: 10 minutes). Alert snapshots are never cached.
	LocalCacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64
}

// Service provides weather snapshots and the client-facing weather view.
type Service struct {
	provider      Provider
	geocoder      Geocoder
	logger        zerolog.Logger
	localCacheTTL time.Duration
	cacheGridSize float64

	mu         sync.RWMutex
	localCache map[string]*cachedLocal
}

type cachedLocal struct {
	local     *LocalWeather
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	localCacheTTL := cfg.LocalCacheTTL
	if localCacheTTL == 0 {
		localCacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	return &Service{
		provider:      cfg.Provider,
		geocoder:      cfg.Geocoder,
		logger:        cfg.Logger,
		localCacheTTL: localCacheTTL,
		cacheGridSize: cacheGridSize,
		localCache:    make(map[string]*cachedLocal),
	}
}

// GetSnapshot returns a fresh weather snapshot for a location. Snapshots feed
// alert evaluation, so they bypass the cache: a stale read could suppress or
// fabricate an alert.
func (s *Service) GetSnapshot(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	snap, err := s.provider.GetSnapshot(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch weather snapshot")
		return nil, ErrProviderUnavailable
	}

	return snap, nil
}

// GetLocalWeather returns the client-facing weather view for a location:
// current conditions, forecast days, and a reverse-geocoded location label.
func (s *Service) GetLocalWeather(ctx context.Context, lat, lon float64) (*LocalWeather, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.localCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.local, nil
	}
	s.mu.RUnlock()

	snap, forecast, err := s.provider.GetForecast(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch weather forecast")
		return nil, ErrProviderUnavailable
	}

	cond := ConditionForCode(snap.Current.WeatherCode)
	local := &LocalWeather{
		Current: CurrentWeather{
			Temperature: derefOr(snap.Current.Temperature, 0),
			Humidity:    snap.Current.Humidity,
			Rainfall:    snap.Current.Precipitation,
			Description: cond.Description,
			Icon:        cond.Icon,
			WindSpeed:   snap.Current.WindSpeed,
		},
		Forecast: forecast,
		Location: s.locationLabel(ctx, lat, lon),
	}

	s.mu.Lock()
	s.localCache[cacheKey] = &cachedLocal{
		local:     local,
		expiresAt: time.Now().Add(s.localCacheTTL),
	}
	s.mu.Unlock()

	return local, nil
}

// locationLabel resolves a location label, degrading to a placeholder on
// geocoder absence or failure. Geocoding is decoration, never a hard error.
func (s *Service) locationLabel(ctx context.Context, lat, lon float64) string {
	const unknown = "Unknown Location"

	if s.geocoder == nil {
		return unknown
	}

	label, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("reverse geocoding failed")
		return unknown
	}
	if label == "" {
		return unknown
	}
	return label
}

// cacheKey groups nearby points into grid cells to reduce provider calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

func derefOr(f *float64, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return *f
}
