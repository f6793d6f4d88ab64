package core

import "context"

// Importer accepts decoded events one at a time and commits them in a
// batch. Commit returns the number of events durably stored.
type Importer interface {
	Submit(ctx context.Context, event Event) error
	Commit(ctx context.Context) (int, error)
}
