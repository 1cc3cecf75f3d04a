// Package device provides the registry of devices subscribed to weather alerts.
package device

import (
	"crypto/sha1" //nolint:gosec // key derivation, not cryptographic protection
	"encoding/hex"
	"errors"
	"time"
)

// Registry errors.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrInvalidToken       = errors.New("a valid push token is required")
	ErrInvalidCoordinates = errors.New("latitude and longitude are required")
)

// minTokenLength is the shortest push token accepted at registration.
// Real FCM/APNs tokens are far longer; anything shorter is a caller bug.
const minTokenLength = 20

// Device is one subscriber record. The key is a one-way hash of the push
// token, so repeated registrations of the same token are idempotent upserts
// and the store never needs a reversible token index.
type Device struct {
	Key           string
	Token         string
	Lat           float64
	Lon           float64
	Platform      string
	LocationLabel string
	Enabled       bool

	// LastSentByType maps alert type codes to the ISO calendar date an
	// alert of that type was last delivered. It backs the one-per-day
	// dedup guarantee.
	LastSentByType map[string]string

	LastAlertType string
	LastAlertAt   time.Time
	LastError     string
	LastErrorAt   time.Time
	UpdatedAt     time.Time
}

// Key derives the stable device key from a raw push token.
func Key(token string) string {
	sum := sha1.Sum([]byte(token)) //nolint:gosec // see package note on key derivation
	return hex.EncodeToString(sum[:])
}

// Registration is the validated input for an upsert: the fields a client
// supplies when registering or moving a device.
type Registration struct {
	Token         string
	Lat           float64
	Lon           float64
	Platform      string
	LocationLabel string
}

// OutcomePatch is a merge-only partial update applied after a dispatch pass.
// Zero-valued fields are left untouched in the stored record.
type OutcomePatch struct {
	// SentType and SentDate record a delivered alert: the store merges
	// LastSentByType[SentType] = SentDate and stamps the alert metadata.
	SentType string
	SentDate string

	// Error records a per-device failure message.
	Error string

	// Disable soft-deletes the device. Only set when the push provider
	// reports the token as permanently invalid.
	Disable bool
}
