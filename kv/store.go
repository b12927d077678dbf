// Package kv is the persistent key-value scope that held the legacy
// local-storage snapshot and the migration record.
package kv

import "context"

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
