package device

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production uses the Firestore implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	devices map[string]*Device // keyed by device key
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		devices: make(map[string]*Device),
	}
}

// Upsert creates or merge-updates the record for the registration's token.
func (r *InMemoryRepository) Upsert(_ context.Context, reg *Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(reg.Token)
	existing, ok := r.devices[key]
	if !ok {
		existing = &Device{Key: key, LastSentByType: make(map[string]string)}
		r.devices[key] = existing
	}

	existing.Token = reg.Token
	existing.Lat = reg.Lat
	existing.Lon = reg.Lon
	existing.Platform = reg.Platform
	existing.LocationLabel = reg.LocationLabel
	existing.Enabled = true
	existing.UpdatedAt = time.Now()
	return nil
}

// Get retrieves a device by key.
func (r *InMemoryRepository) Get(_ context.Context, key string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[key]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return copyDevice(d), nil
}

// ListEnabled streams every enabled device to fn.
func (r *InMemoryRepository) ListEnabled(_ context.Context, fn func(*Device) error) error {
	r.mu.RLock()
	enabled := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		if d.Enabled {
			enabled = append(enabled, copyDevice(d))
		}
	}
	r.mu.RUnlock()

	for _, d := range enabled {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome merges a partial post-dispatch update into the record.
func (r *InMemoryRepository) RecordOutcome(_ context.Context, key string, patch OutcomePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[key]
	if !ok {
		return ErrDeviceNotFound
	}

	now := time.Now()
	if patch.SentType != "" {
		if d.LastSentByType == nil {
			d.LastSentByType = make(map[string]string)
		}
		d.LastSentByType[patch.SentType] = patch.SentDate
		d.LastAlertType = patch.SentType
		d.LastAlertAt = now
	}
	if patch.Error != "" {
		d.LastError = patch.Error
		d.LastErrorAt = now
	}
	if patch.Disable {
		d.Enabled = false
	}
	return nil
}

// copyDevice creates a deep copy of a device.
func copyDevice(d *Device) *Device {
	if d == nil {
		return nil
	}

	deviceCopy := *d
	deviceCopy.LastSentByType = make(map[string]string, len(d.LastSentByType))
	for k, v := range d.LastSentByType {
		deviceCopy.LastSentByType[k] = v
	}
	return &deviceCopy
}
