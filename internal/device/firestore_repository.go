package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection is the Firestore collection holding device records.
const DefaultCollection = "alert_devices"

// FirestoreRepository is a Firestore-backed implementation of Repository.
// Merge-on-write document semantics carry the registry's invariant that
// partial updates never clobber unrelated fields.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRepository creates a Firestore device repository.
// An empty collection name uses DefaultCollection.
func NewFirestoreRepository(client *firestore.Client, collection string) *FirestoreRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreRepository{
		client:     client,
		collection: collection,
	}
}

// Upsert creates or merge-updates the record for the registration's token.
func (r *FirestoreRepository) Upsert(ctx context.Context, reg *Registration) error {
	key := Key(reg.Token)

	_, err := r.doc(key).Set(ctx, map[string]interface{}{
		"token":         reg.Token,
		"lat":           reg.Lat,
		"lon":           reg.Lon,
		"platform":      reg.Platform,
		"locationLabel": reg.LocationLabel,
		"enabled":       true,
		"updatedAt":     firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("upserting device %s: %w", key, err)
	}
	return nil
}

// Get retrieves a device by key.
func (r *FirestoreRepository) Get(ctx context.Context, key string) (*Device, error) {
	snap, err := r.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("getting device %s: %w", key, err)
	}

	return r.toDevice(key, snap.Data()), nil
}

// ListEnabled streams every enabled device to fn, one Firestore page at a
// time, so an unbounded registry never loads into a single slice.
func (r *FirestoreRepository) ListEnabled(ctx context.Context, fn func(*Device) error) error {
	iter := r.client.Collection(r.collection).
		Where("enabled", "==", true).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listing enabled devices: %w", err)
		}

		if err := fn(r.toDevice(snap.Ref.ID, snap.Data())); err != nil {
			return err
		}
	}
}

// RecordOutcome merges a partial post-dispatch update into the record.
func (r *FirestoreRepository) RecordOutcome(ctx context.Context, key string, patch OutcomePatch) error {
	update := make(map[string]interface{})

	if patch.SentType != "" {
		// Nested map under a merge writes only this alert type's entry.
		update["lastSentByType"] = map[string]interface{}{patch.SentType: patch.SentDate}
		update["lastAlertType"] = patch.SentType
		update["lastAlertAt"] = firestore.ServerTimestamp
	}
	if patch.Error != "" {
		update["lastError"] = patch.Error
		update["lastErrorAt"] = firestore.ServerTimestamp
	}
	if patch.Disable {
		update["enabled"] = false
	}
	if len(update) == 0 {
		return nil
	}

	_, err := r.doc(key).Set(ctx, update, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("recording outcome for device %s: %w", key, err)
	}
	return nil
}

func (r *FirestoreRepository) doc(key string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(key)
}

// toDevice converts raw document data into a Device. Field decoding is
// lenient: records written by older clients may miss fields.
func (r *FirestoreRepository) toDevice(key string, data map[string]interface{}) *Device {
	d := &Device{
		Key:            key,
		Token:          str(data["token"]),
		Lat:            num(data["lat"]),
		Lon:            num(data["lon"]),
		Platform:       str(data["platform"]),
		LocationLabel:  str(data["locationLabel"]),
		Enabled:        boolean(data["enabled"]),
		LastAlertType:  str(data["lastAlertType"]),
		LastAlertAt:    timestamp(data["lastAlertAt"]),
		LastError:      str(data["lastError"]),
		LastErrorAt:    timestamp(data["lastErrorAt"]),
		UpdatedAt:      timestamp(data["updatedAt"]),
		LastSentByType: make(map[string]string),
	}

	if m, ok := data["lastSentByType"].(map[string]interface{}); ok {
		for k, v := range m {
			d.LastSentByType[k] = str(v)
		}
	}

	return d
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// num decodes a numeric field. Missing or mistyped values decode to NaN so
// the dispatcher's coordinate validation skips the record instead of
// treating it as (0, 0).
func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}

func boolean(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func timestamp(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}
