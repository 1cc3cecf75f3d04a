// Package worker provides the background alert dispatch job for FarmCast.
package worker

import (
	"time"

	"github.com/farmcast/farmcast/internal/alert"
)

// DispatchConfig holds configuration for the alert dispatch job.
type DispatchConfig struct {
	// Concurrency is the number of devices processed in parallel.
	// Default: 3
	Concurrency int

	// DeviceTimeout bounds the weather fetch plus push delivery for a
	// single device. Default: 30 seconds
	DeviceTimeout time.Duration

	// Thresholds are the alert trigger levels.
	// Zero value uses alert.DefaultThresholds.
	Thresholds alert.Thresholds
}

// DefaultDispatchConfig returns the default dispatch configuration.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Concurrency:   3,
		DeviceTimeout: 30 * time.Second,
		Thresholds:    alert.DefaultThresholds(),
	}
}

// withDefaults fills unset fields.
func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.DeviceTimeout <= 0 {
		c.DeviceTimeout = 30 * time.Second
	}
	if c.Thresholds == (alert.Thresholds{}) {
		c.Thresholds = alert.DefaultThresholds()
	}
	return c
}
