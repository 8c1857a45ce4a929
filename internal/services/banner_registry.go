package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// BannerRegistry keeps mounted banners addressable by mount id. When full,
// mounting a new banner unmounts the oldest one.
type BannerRegistry struct {
	mu      sync.RWMutex
	banners map[uuid.UUID]*Banner
	order   []uuid.UUID
	max     int
}

// NewBannerRegistry creates a registry holding at most capacity banners.
func NewBannerRegistry(capacity int) *BannerRegistry {
	if capacity <= 0 {
		capacity = 1
	}
	return &BannerRegistry{
		banners: make(map[uuid.UUID]*Banner),
		max:     capacity,
	}
}

// Mount registers b and starts its initial load.
func (r *BannerRegistry) Mount(ctx context.Context, b *Banner) (uuid.UUID, error) {
	id := uuid.New()

	r.mu.Lock()
	var evicted []*Banner
	for len(r.order) >= r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		if old, ok := r.banners[oldest]; ok {
			evicted = append(evicted, old)
			delete(r.banners, oldest)
		}
	}
	r.banners[id] = b
	r.order = append(r.order, id)
	r.mu.Unlock()

	for _, old := range evicted {
		old.Unmount()
	}

	if err := b.Mount(ctx); err != nil {
		r.Unmount(id)
		return uuid.Nil, err
	}
	return id, nil
}

// Get returns the banner mounted under id.
func (r *BannerRegistry) Get(id uuid.UUID) (*Banner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.banners[id]
	return b, ok
}

// Unmount removes and unmounts the banner. It reports whether id was known.
func (r *BannerRegistry) Unmount(id uuid.UUID) bool {
	r.mu.Lock()
	b, ok := r.banners[id]
	if ok {
		delete(r.banners, id)
		for i, known := range r.order {
			if known == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if ok {
		b.Unmount()
	}
	return ok
}

// Len returns the number of mounted banners.
func (r *BannerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.banners)
}
