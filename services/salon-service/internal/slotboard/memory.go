package slotboard

import (
	"context"
	"sync"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// MemoryStore keeps boards in process memory. It backs STORAGE_DRIVER=memory and tests.
type MemoryStore struct {
	mu     sync.Mutex
	boards map[string]model.SlotBoard
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{boards: map[string]model.SlotBoard{}}
}

func (s *MemoryStore) Get(_ context.Context, day time.Time) (model.SlotBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[model.FormatDay(day)]
	if !ok {
		return model.SlotBoard{}, model.ErrNotFound
	}
	return copyBoard(b), nil
}

func (s *MemoryStore) GetOrCreate(_ context.Context, day time.Time, gen Generator) (model.SlotBoard, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.FormatDay(day)
	if b, ok := s.boards[key]; ok {
		return copyBoard(b), false, nil
	}
	now := time.Now().UTC()
	b := model.SlotBoard{Date: day, Slots: gen(day), CreatedAt: now, UpdatedAt: now}
	s.boards[key] = b
	return copyBoard(b), true, nil
}

func (s *MemoryStore) MarkUnavailable(_ context.Context, day time.Time, slotTime, bookingID string) error {
	return s.update(day, slotTime, markUnavailable(bookingID))
}

func (s *MemoryStore) MarkAvailable(_ context.Context, day time.Time, slotTime, bookingID string) error {
	return s.update(day, slotTime, markAvailable(bookingID))
}

func (s *MemoryStore) BlockManually(_ context.Context, day time.Time, slotTime string) error {
	return s.update(day, slotTime, block)
}

func (s *MemoryStore) Replace(_ context.Context, board model.SlotBoard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.FormatDay(board.Date)
	now := time.Now().UTC()
	if prev, ok := s.boards[key]; ok {
		board.CreatedAt = prev.CreatedAt
	} else {
		board.CreatedAt = now
	}
	board.UpdatedAt = now
	s.boards[key] = copyBoard(board)
	return nil
}

func (s *MemoryStore) update(day time.Time, slotTime string, fn func(*model.Slot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.FormatDay(day)
	b, ok := s.boards[key]
	if !ok {
		return ErrNoSlot
	}
	if err := apply(b.Slots, slotTime, fn); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	s.boards[key] = b
	return nil
}

func copyBoard(b model.SlotBoard) model.SlotBoard {
	b.Slots = cloneSlots(b.Slots)
	return b
}
