package repository

import (
	"context"
	"time"

	"photovault/internal/model"
)

// PhotoRepository defines data access for photos using SQL queries only.
// No business logic here — strictly persistence operations. Every read and
// write is scoped to the owning user; a photo belonging to another owner is
// indistinguishable from a missing one.
type PhotoRepository interface {
	// Create inserts a new photo record and returns the stored row
	// (including values set by the database).
	Create(ctx context.Context, photo *model.Photo) (*model.Photo, error)

	// FindByID returns the photo with the given id if it belongs to ownerID.
	FindByID(ctx context.Context, ownerID, id string) (*model.Photo, error)

	// FindByIDs returns the subset of ids that belong to ownerID, in the
	// order given.
	FindByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Photo, error)

	// List returns a filtered, sorted, paginated page of photos plus the
	// total row count for the filter.
	List(ctx context.Context, f PhotoFilter) (*PageResult[model.Photo], error)

	// UpdateImage persists new pixel dimensions, byte size and MIME type
	// after an edit operation.
	UpdateImage(ctx context.Context, ownerID, id string, width, height int, size int64, mimeType string) error

	// Delete removes a photo row; its tag associations cascade. It returns
	// nil if the row was deleted or did not exist.
	Delete(ctx context.Context, ownerID, id string) error

	// TagNames returns the names of all tags associated with a photo.
	TagNames(ctx context.Context, photoID string) ([]string, error)
}

// PhotoFilter holds the compound search predicate for photo listing.
// SortColumn must already be validated against the sortable-field
// allow-list before it reaches the repository.
type PhotoFilter struct {
	OwnerID    string
	FreeText   string
	TagName    string
	TakenFrom  *time.Time // inclusive lower bound on capture time
	TakenUntil *time.Time // exclusive upper bound on capture time
	SortColumn string
	Descending bool
	Limit      int
	Offset     int
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
