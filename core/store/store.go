package store

import (
	"context"
	"errors"

	"github.com/tguellec/qcdispatch/core/model"
)

// ErrNotFound is returned when a dispatch id is unknown to the store.
var ErrNotFound = errors.New("dispatch not found")

// DescriptorStore persists dispatch configurations. Save is used by the
// engine solely to advance the executed counter.
type DescriptorStore interface {
	FindActive(ctx context.Context) ([]model.Dispatch, error)
	Find(ctx context.Context, id string) (model.Dispatch, error)
	Save(ctx context.Context, d model.Dispatch) error
}

// TaskStore persists dispatched tasks. SaveBatch must be atomic from the
// engine's perspective: either every task of a firing is stored or none is.
type TaskStore interface {
	SaveBatch(ctx context.Context, tasks []model.Task) error
}
