// Package push defines the push-delivery boundary for weather alerts.
package push

import (
	"context"
	"errors"
)

// ErrInvalidToken marks a delivery failure where the provider reports the
// token as permanently invalid or unregistered. It is the one failure kind
// the dispatcher treats differently: the device is disabled instead of
// retried on the next tick.
var ErrInvalidToken = errors.New("push token invalid or unregistered")

// Notification is one push message addressed to a single device.
type Notification struct {
	Token    string
	Title    string
	Body     string
	Data     map[string]string
	Platform string
}

// Sender delivers push notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// IsInvalidToken reports whether a delivery error indicates a permanently
// invalid token.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
