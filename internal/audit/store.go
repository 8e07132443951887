package audit

import (
	"context"
)

// Store appends records. Implementations must not offer update or delete.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// Lister reads the most recent records, newest first.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}
