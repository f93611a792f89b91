package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// MemoryStore is an in-process ledger. The mutex plays the role of the unique
// index: the active-slot check and the write happen under one lock.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: map[string]model.Booking{}}
}

func (s *MemoryStore) FindConflict(_ context.Context, day time.Time, effectiveTime string) (model.Booking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.holder(model.SlotKey(day, effectiveTime), "")
	return b, ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b = prepareInsert(b, uuid.NewString(), time.Now().UTC())
	if _, exists := s.bookings[b.ID]; exists {
		return model.Booking{}, model.ErrConflict
	}
	if b.Active() {
		if _, taken := s.holder(model.SlotKey(b.Date, b.EffectiveTime()), ""); taken {
			return model.Booking{}, model.ErrConflict
		}
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, model.ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.Status, notes *string) (model.Booking, model.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, "", model.ErrNotFound
	}
	prev := b.Status
	if !b.Active() && status != model.StatusCancelled {
		if _, taken := s.holder(model.SlotKey(b.Date, b.EffectiveTime()), b.ID); taken {
			return model.Booking{}, "", model.ErrConflict
		}
	}
	b.Status = status
	if notes != nil {
		b.Notes = *notes
	}
	b.Normalize()
	b.UpdatedAt = time.Now().UTC()
	s.bookings[id] = b
	return b, prev, nil
}

func (s *MemoryStore) Cancel(_ context.Context, id string, today time.Time) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || !b.Active() || model.IsPastDay(b.Date, today) {
		var getErr error
		if !ok {
			getErr = model.ErrNotFound
		}
		return model.Booking{}, cancelFailure(id, b, getErr, today)
	}
	b.Status = model.StatusCancelled
	b.UpdatedAt = time.Now().UTC()
	s.bookings[id] = b
	return b, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *MemoryStore) ListBookedTimes(ctx context.Context, day time.Time) ([]string, error) {
	active, err := s.ListActive(ctx, day)
	if err != nil {
		return nil, err
	}
	return uniqueTimes(active), nil
}

func (s *MemoryStore) ListActive(_ context.Context, day time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Booking
	for _, b := range s.bookings {
		if b.Active() && b.Date.Equal(day) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveTime() < out[j].EffectiveTime() })
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) (Page, error) {
	f = f.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Booking
	for _, b := range s.bookings {
		if !f.Day.IsZero() && !b.Date.Equal(f.Day) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Search != "" && !matchesSearch(b, f.Search) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := Page{Total: int64(len(matched))}
	start := f.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Bookings = matched[start:end]
	return page, nil
}

// holder finds the active booking with the given slot key, ignoring exceptID.
func (s *MemoryStore) holder(key, exceptID string) (model.Booking, bool) {
	for _, b := range s.bookings {
		if b.ID == exceptID || !b.Active() {
			continue
		}
		if model.SlotKey(b.Date, b.EffectiveTime()) == key {
			return b, true
		}
	}
	return model.Booking{}, false
}

func matchesSearch(b model.Booking, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{b.Name, b.Phone, b.Email, b.Service} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
