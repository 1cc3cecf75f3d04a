package device

import "context"

// Repository defines the interface for device persistence. All writes are
// merges: fields absent from an update are preserved, so concurrent writers
// touching unrelated fields of the same record never clobber each other.
type Repository interface {
	// Upsert creates or merge-updates the record for the registration's
	// token, setting Enabled and refreshing the update timestamp.
	Upsert(ctx context.Context, reg *Registration) error

	// Get retrieves a device by key.
	Get(ctx context.Context, key string) (*Device, error)

	// ListEnabled streams every enabled device to fn. Streaming keeps the
	// dispatch working set bounded regardless of registry size. Iteration
	// stops on the first error fn returns.
	ListEnabled(ctx context.Context, fn func(*Device) error) error

	// RecordOutcome merges a partial post-dispatch update into the record.
	RecordOutcome(ctx context.Context, key string, patch OutcomePatch) error
}
