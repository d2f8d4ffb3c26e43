// Package storage persists analysis result records.
package storage

import "context"

// ResultStore defines the interface for result record backends.
type ResultStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
