package device

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// Service provides validated registry operations. Caller input errors are
// rejected here, before any I/O.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new device service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register registers a device for weather alerts, or refreshes an existing
// registration. Returns the derived device key. Registering the same token
// twice with identical arguments is idempotent.
func (s *Service) Register(ctx context.Context, reg Registration) (string, error) {
	normalized, err := s.validate(reg)
	if err != nil {
		return "", err
	}

	if err := s.repo.Upsert(ctx, &normalized); err != nil {
		return "", err
	}

	key := Key(normalized.Token)
	s.logger.Info().
		Str("device_key", key).
		Str("platform", normalized.Platform).
		Msg("device registered")
	return key, nil
}

// UpdateLocation moves an existing registration to new coordinates. It is an
// upsert with the same merge semantics as Register, so a device that was
// never registered simply gets created.
func (s *Service) UpdateLocation(ctx context.Context, reg Registration) (string, error) {
	normalized, err := s.validate(reg)
	if err != nil {
		return "", err
	}

	if err := s.repo.Upsert(ctx, &normalized); err != nil {
		return "", err
	}

	key := Key(normalized.Token)
	s.logger.Info().
		Str("device_key", key).
		Str("location", normalized.LocationLabel).
		Msg("device location updated")
	return key, nil
}

// Get retrieves a device record by key.
func (s *Service) Get(ctx context.Context, key string) (*Device, error) {
	return s.repo.Get(ctx, key)
}

func (s *Service) validate(reg Registration) (Registration, error) {
	reg.Token = strings.TrimSpace(reg.Token)
	if len(reg.Token) < minTokenLength {
		return Registration{}, ErrInvalidToken
	}

	if !isFinite(reg.Lat) || !isFinite(reg.Lon) {
		return Registration{}, ErrInvalidCoordinates
	}

	if reg.Platform == "" {
		reg.Platform = "unknown"
	}
	return reg, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
