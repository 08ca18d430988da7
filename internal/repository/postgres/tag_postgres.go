package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"photovault/internal/model"
	"photovault/internal/repository"
)

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db *sql.DB
}

// NewTagPostgres creates a new TagPostgres repository.
func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

const tagColumns = `id, name, origin, created_at`

// FindByName fetches a tag by its globally unique name.
func (r *TagPostgres) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE name = $1`
	return scanTag(r.db.QueryRowContext(ctx, q, name))
}

// Upsert returns the tag with the given name, creating it when absent.
// Names are globally unique; when two callers race to create the same
// name, the loser adopts the winner's row instead of failing.
func (r *TagPostgres) Upsert(ctx context.Context, name string, origin model.TagOrigin) (*model.Tag, error) {
	tag, err := r.FindByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	q := `
		INSERT INTO tags (id, name, origin)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
		RETURNING ` + tagColumns

	tag, err = scanTag(r.db.QueryRowContext(ctx, q, uuid.New().String(), name, string(origin)))
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Lost the insert race; the row exists now.
	return r.FindByName(ctx, name)
}

// Associate links a tag to a photo. It reports whether a new link was
// created; an already existing link is not an error.
func (r *TagPostgres) Associate(ctx context.Context, photoID, tagID string) (bool, error) {
	const q = `
		INSERT INTO photo_tags (photo_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, q, photoID, tagID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Dissociate removes the link between a photo and a tag. Removing a link
// that does not exist is not an error.
func (r *TagPostgres) Dissociate(ctx context.Context, photoID, tagID string) error {
	const q = `DELETE FROM photo_tags WHERE photo_id = $1 AND tag_id = $2`
	_, err := r.db.ExecContext(ctx, q, photoID, tagID)
	return err
}

// ListByOwner returns every tag attached to at least one of the owner's
// photos, ordered by name.
func (r *TagPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Tag, error) {
	const q = `
		SELECT DISTINCT t.id, t.name, t.origin, t.created_at
		FROM tags t
		JOIN photo_tags pt ON pt.tag_id = t.id
		JOIN photos p ON p.id = pt.photo_id
		WHERE p.owner_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func scanTag(row rowScanner) (*model.Tag, error) {
	var t model.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Origin, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
