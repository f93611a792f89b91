package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]model.Service
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{services: map[string]model.Service{}}
}

func (s *MemoryStore) List(_ context.Context, category model.Category) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Service{}
	for _, svc := range s.services {
		if category == "" || svc.Category == category {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return model.Service{}, model.ErrNotFound
	}
	return svc, nil
}

func (s *MemoryStore) Create(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	svc.ID = uuid.NewString()
	svc.CreatedAt, svc.UpdatedAt = now, now
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.services[id]
	if !ok {
		return model.Service{}, model.ErrNotFound
	}
	svc.ID = id
	svc.CreatedAt = prev.CreatedAt
	svc.UpdatedAt = time.Now().UTC()
	s.services[id] = svc
	return svc, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.services, id)
	return nil
}
