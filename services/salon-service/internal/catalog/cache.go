package catalog

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

const listKeyPrefix = "list:"

// CachedStore is a read-through LRU in front of another Store. The menu is
// read on every page load and changes rarely, so any write purges list entries.
type CachedStore struct {
	next Store

	mu    sync.Mutex
	items *lru.Cache[string, model.Service]
	lists *lru.Cache[string, []model.Service]
}

func NewCachedStore(next Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 128
	}
	items, err := lru.New[string, model.Service](size)
	if err != nil {
		return nil, err
	}
	lists, err := lru.New[string, []model.Service](8)
	if err != nil {
		return nil, err
	}
	return &CachedStore{next: next, items: items, lists: lists}, nil
}

func (c *CachedStore) List(ctx context.Context, category model.Category) ([]model.Service, error) {
	key := listKeyPrefix + string(category)
	if cached, ok := c.lists.Get(key); ok {
		return append([]model.Service(nil), cached...), nil
	}
	out, err := c.next.List(ctx, category)
	if err != nil {
		return nil, err
	}
	c.lists.Add(key, append([]model.Service(nil), out...))
	return out, nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (model.Service, error) {
	if svc, ok := c.items.Get(id); ok {
		return svc, nil
	}
	svc, err := c.next.Get(ctx, id)
	if err != nil {
		return model.Service{}, err
	}
	c.items.Add(id, svc)
	return svc, nil
}

func (c *CachedStore) Create(ctx context.Context, svc model.Service) (model.Service, error) {
	created, err := c.next.Create(ctx, svc)
	if err != nil {
		return model.Service{}, err
	}
	c.invalidate("")
	return created, nil
}

func (c *CachedStore) Update(ctx context.Context, id string, svc model.Service) (model.Service, error) {
	updated, err := c.next.Update(ctx, id, svc)
	c.invalidate(id)
	if err != nil {
		return model.Service{}, err
	}
	return updated, nil
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(id)
	return err
}

func (c *CachedStore) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != "" {
		c.items.Remove(id)
	}
	c.lists.Purge()
}
