// Package cache pushes index entries into the hosted read caches. The engine
// itself never touches these stores; they are fed after the index has been
// rebuilt, and the ticket files remain authoritative on any conflict.
package cache

import (
	"context"

	"github.com/tkforge/tk/internal/index"
)

// Store is a read-cache ingester. Sync makes the store reflect exactly the
// given entries: existing rows are upserted, rows for tickets that no longer
// exist are pruned.
type Store interface {
	Sync(ctx context.Context, entries []index.Entry) error
	Close() error
}
