// Package kv implements the device key-value store the offline queue and
// cache are persisted in. Values are opaque strings (JSON encoded by callers).
package kv

import "context"

// Store is an async string key-value store. Get reports ok=false for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
