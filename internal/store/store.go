// Package store holds the external counter store used for admission
// control. The service keeps no cross-request state in process; the rate
// window counters live behind the Counter interface so deployments can
// share them across instances (Redis) or keep them local (memory).
package store

import (
	"context"
	"time"
)

// Counter is a narrow key-value view of the external store. Values are
// strings; interpretation is the caller's business.
//
// Expiry semantics: an expiry > 0 (re)arms the key's time-to-live; an
// expiry of 0 leaves any existing time-to-live in place. Expiry is
// advisory — implementations guarantee eventual removal after the
// deadline, not removal at the deadline.
type Counter interface {
	// Get returns the value for key, or ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put stores value under key with the expiry semantics above.
	Put(ctx context.Context, key, value string, expiry time.Duration) error
}

// Kind names a Counter implementation for introspection surfaces.
type Kind interface {
	Kind() string
}
