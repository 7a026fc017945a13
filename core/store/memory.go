package store

import (
	"context"
	"sync"

	"github.com/tguellec/qcdispatch/core/model"
)

// MemoryStore keeps dispatches and tasks in memory. It backs single-process
// deployments and the test suite.
type MemoryStore struct {
	mu         sync.RWMutex
	dispatches map[string]model.Dispatch
	tasks      []model.Task
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{dispatches: make(map[string]model.Dispatch)}
}

// Put inserts or replaces a dispatch.
func (s *MemoryStore) Put(d model.Dispatch) {
	s.mu.Lock()
	s.dispatches[d.ID] = d.Clone()
	s.mu.Unlock()
}

// FindActive returns all dispatches marked active.
func (s *MemoryStore) FindActive(ctx context.Context) ([]model.Dispatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Dispatch
	for _, d := range s.dispatches {
		if d.Active {
			res = append(res, d.Clone())
		}
	}
	return res, nil
}

// Find returns the dispatch with the given id or ErrNotFound.
func (s *MemoryStore) Find(ctx context.Context, id string) (model.Dispatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dispatches[id]
	if !ok {
		return model.Dispatch{}, ErrNotFound
	}
	return d.Clone(), nil
}

// Save replaces the stored dispatch.
func (s *MemoryStore) Save(ctx context.Context, d model.Dispatch) error {
	s.mu.Lock()
	s.dispatches[d.ID] = d.Clone()
	s.mu.Unlock()
	return nil
}

// SaveBatch appends all tasks at once.
func (s *MemoryStore) SaveBatch(ctx context.Context, tasks []model.Task) error {
	s.mu.Lock()
	s.tasks = append(s.tasks, tasks...)
	s.mu.Unlock()
	return nil
}

// Tasks returns a snapshot of all stored tasks.
func (s *MemoryStore) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task(nil), s.tasks...)
}
