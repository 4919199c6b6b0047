package domain

import "context"

// KeyValueStore is durable storage of named records addressed by a string key.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}
