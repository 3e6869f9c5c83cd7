package docstore

import (
	"context"
	"fmt"
	"regexp"
)

// Filter matches documents whose top-level fields equal the given values. A nil filter matches all.
type Filter map[string]any

// Store is a collection/id addressed document store.
type Store interface {
	// Get decodes the document into out. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, collection, id string, out any) error
	Find(ctx context.Context, collection string, filter Filter) ([]Snapshot, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// Create fails with domain.ErrConflict when the id or a unique field already exists.
	Create(ctx context.Context, collection, id string, doc any) error
	Set(ctx context.Context, collection, id string, doc any) error
	// Update sets the given top-level fields. Returns domain.ErrNotFound when absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Watch sends the current state of the document, then its state after every change,
	// until ctx is cancelled. The channel is closed when the subscription ends.
	Watch(ctx context.Context, collection, id string) (<-chan Snapshot, error)
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
}

// Snapshot is one observed state of a document.
type Snapshot struct {
	ID     string
	Exists bool
	Err    error
	decode func(any) error
}

func NewSnapshot(id string, decode func(any) error) Snapshot {
	return Snapshot{ID: id, Exists: true, decode: decode}
}

func Missing(id string) Snapshot {
	return Snapshot{ID: id}
}

func Failed(id string, err error) Snapshot {
	return Snapshot{ID: id, Err: err}
}

func (s Snapshot) Decode(out any) error {
	if s.Err != nil {
		return s.Err
	}
	if !s.Exists || s.decode == nil {
		return fmt.Errorf("document %s does not exist", s.ID)
	}
	return s.decode(out)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdentifier(kind, name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}
