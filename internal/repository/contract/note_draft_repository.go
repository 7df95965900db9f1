package contract

import (
	"course-notes-admin/internal/entity"
)

// NoteDraftRepository serializes every mutation of a draft. Returned drafts are copies.
type NoteDraftRepository interface {
	// Get returns the stored draft, or a fresh idle one that is not persisted.
	Get(id string, key entity.RouteKey) entity.NoteDraft
	// Update loads (or creates) the draft, applies fn and stores the result even
	// when fn returns an error, so failure messages stick.
	Update(id string, key entity.RouteKey, fn func(d *entity.NoteDraft) error) (entity.NoteDraft, error)
}
