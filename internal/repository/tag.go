package repository

import (
	"context"

	"photovault/internal/model"
)

// TagRepository defines data access for tags and photo-tag associations.
// Tag names live in a single global namespace with a storage-level
// uniqueness constraint; implementations must resolve concurrent creation
// of the same name to one surviving row.
type TagRepository interface {
	// FindByName returns a tag by its exact, case-sensitive name.
	FindByName(ctx context.Context, name string) (*model.Tag, error)

	// Upsert returns the tag with the given name, creating it with the
	// given origin if absent. When two writers race on the same new name,
	// the loser adopts the winner's row instead of failing.
	Upsert(ctx context.Context, name string, origin model.TagOrigin) (*model.Tag, error)

	// Associate links a tag to a photo. It reports whether a new
	// association was created; re-linking an existing pair is a no-op.
	Associate(ctx context.Context, photoID, tagID string) (bool, error)

	// Dissociate removes the photo-tag link. Removing a missing link is a
	// no-op. The global tag row is never deleted.
	Dissociate(ctx context.Context, photoID, tagID string) error

	// ListByOwner returns the distinct tags attached to any of the owner's
	// photos.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Tag, error)
}
