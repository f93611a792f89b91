package reviews

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type MemoryStore struct {
	mu      sync.RWMutex
	reviews map[string]model.Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reviews: map[string]model.Review{}}
}

func (s *MemoryStore) List(_ context.Context, approvedOnly bool) ([]model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Review{}
	for _, r := range s.reviews {
		if approvedOnly && !r.Approved {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, r model.Review) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.Approved = false
	r.CreatedAt, r.UpdatedAt = now, now
	s.reviews[r.ID] = r
	return r, nil
}

func (s *MemoryStore) SetApproved(_ context.Context, id string, approved bool) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, model.ErrNotFound
	}
	r.Approved = approved
	r.UpdatedAt = time.Now().UTC()
	s.reviews[id] = r
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}
