package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-process Store.
type MemoryStore struct {
	mu        sync.Mutex
	artifacts map[string]*Artifact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string]*Artifact)}
}

func (s *MemoryStore) Put(_ context.Context, a *Artifact) error {
	prepare(a)
	cp := *a
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) FindByHash(_ context.Context, hash string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Artifact
	for _, a := range s.artifacts {
		if a.Hash != hash {
			continue
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) ||
			(a.CreatedAt.Equal(found.CreatedAt) && a.ID < found.ID) {
			found = a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (s *MemoryStore) ListByJob(_ context.Context, jobID string) ([]*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Artifact
	for _, a := range s.artifacts {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Cleanup(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, a := range s.artifacts {
		if a.CreatedAt.Before(cutoff) {
			delete(s.artifacts, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() {}
