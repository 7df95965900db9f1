package memory

import (
	"sync"
	"time"

	"course-notes-admin/internal/entity"

	"github.com/patrickmn/go-cache"
)

type NoteDraftRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewNoteDraftRepository keeps drafts for ttl after their last change and
// purges expired ones every ttl/6.
func NewNoteDraftRepository(ttl time.Duration) *NoteDraftRepository {
	return &NoteDraftRepository{
		cache: cache.New(ttl, ttl/6),
	}
}

func (r *NoteDraftRepository) Get(id string, key entity.RouteKey) entity.NoteDraft {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(id); found {
		return *x.(*entity.NoteDraft)
	}
	return *entity.NewNoteDraft(id, key)
}

func (r *NoteDraftRepository) Update(id string, key entity.RouteKey, fn func(d *entity.NoteDraft) error) (entity.NoteDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var draft *entity.NoteDraft
	if x, found := r.cache.Get(id); found {
		draft = x.(*entity.NoteDraft)
	} else {
		draft = entity.NewNoteDraft(id, key)
	}

	err := fn(draft)
	draft.Version++
	r.cache.Set(id, draft, cache.DefaultExpiration)

	return *draft, err
}
