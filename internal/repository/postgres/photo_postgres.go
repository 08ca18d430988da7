package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"photovault/internal/model"
	"photovault/internal/repository"
)

// PhotoPostgres is a PostgreSQL implementation of repository.PhotoRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PhotoPostgres struct {
	db *sql.DB
}

// NewPhotoPostgres creates a new PhotoPostgres repository.
func NewPhotoPostgres(db *sql.DB) *PhotoPostgres {
	return &PhotoPostgres{db: db}
}

var _ repository.PhotoRepository = (*PhotoPostgres)(nil)

const photoColumns = `id, owner_id, filename, original_filename, storage_path, thumbnail_path,
		width, height, file_size, mime_type, camera_make, camera_model,
		taken_at, latitude, longitude, location_name, created_at, updated_at`

// Create inserts a new photo row and returns the stored record.
func (r *PhotoPostgres) Create(ctx context.Context, photo *model.Photo) (*model.Photo, error) {
	q := `
		INSERT INTO photos (id, owner_id, filename, original_filename, storage_path, thumbnail_path,
			width, height, file_size, mime_type, camera_make, camera_model,
			taken_at, latitude, longitude, location_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + photoColumns

	row := r.db.QueryRowContext(ctx, q,
		photo.ID,
		photo.OwnerID,
		photo.Filename,
		photo.OriginalFilename,
		photo.StoragePath,
		photo.ThumbnailPath,
		photo.Width,
		photo.Height,
		photo.FileSize,
		photo.MimeType,
		nullString(photo.CameraMake),
		nullString(photo.CameraModel),
		nullTime(photo.TakenAt),
		nullFloat(photo.Latitude),
		nullFloat(photo.Longitude),
		nullString(photo.LocationName),
		photo.CreatedAt,
		photo.UpdatedAt,
	)
	return scanPhoto(row)
}

// FindByID fetches a single photo scoped to its owner.
func (r *PhotoPostgres) FindByID(ctx context.Context, ownerID, id string) (*model.Photo, error) {
	q := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1 AND owner_id = $2`
	return scanPhoto(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// FindByIDs returns the owner's photos among the given ids, preserving the
// order of ids.
func (r *PhotoPostgres) FindByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	q := `SELECT ` + photoColumns + ` FROM photos WHERE owner_id = $1 AND id IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]model.Photo, len(ids))
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Photo, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// List executes the compound filter with stable ordering and LIMIT/OFFSET
// pagination, returning the page and the total count for the filter.
// The sort column must come from the service-level allow-list; it is
// interpolated, never user input.
func (r *PhotoPostgres) List(ctx context.Context, f repository.PhotoFilter) (*repository.PageResult[model.Photo], error) {
	where := []string{"owner_id = $1"}
	args := []any{f.OwnerID}

	if f.FreeText != "" {
		pattern := "%" + f.FreeText + "%"
		args = append(args, pattern, pattern)
		where = append(where, fmt.Sprintf("(original_filename ILIKE $%d OR location_name ILIKE $%d)", len(args)-1, len(args)))
	}
	if f.TagName != "" {
		args = append(args, f.TagName)
		where = append(where, fmt.Sprintf(
			"id IN (SELECT pt.photo_id FROM photo_tags pt JOIN tags t ON t.id = pt.tag_id WHERE t.name = $%d)",
			len(args)))
	}
	// Date bounds apply to the capture timestamp; rows without one are
	// excluded by the comparison against NULL.
	if f.TakenFrom != nil {
		args = append(args, *f.TakenFrom)
		where = append(where, fmt.Sprintf("taken_at >= $%d", len(args)))
	}
	if f.TakenUntil != nil {
		args = append(args, *f.TakenUntil)
		where = append(where, fmt.Sprintf("taken_at < $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, err
	}

	sortColumn := f.SortColumn
	if sortColumn == "" {
		sortColumn = "created_at"
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf("SELECT %s FROM photos WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d",
		photoColumns, whereClause, sortColumn, dir, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Photo]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateImage persists the post-edit dimensions, size and MIME type.
func (r *PhotoPostgres) UpdateImage(ctx context.Context, ownerID, id string, width, height int, size int64, mimeType string) error {
	const q = `
		UPDATE photos
		SET width = $1, height = $2, file_size = $3, mime_type = $4, updated_at = now()
		WHERE id = $5 AND owner_id = $6
	`
	res, err := r.db.ExecContext(ctx, q, width, height, size, mimeType, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a photo row. Tag associations cascade via the schema.
// It does not return an error if the row does not exist.
func (r *PhotoPostgres) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM photos WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// TagNames returns the names of all tags attached to a photo.
func (r *PhotoPostgres) TagNames(ctx context.Context, photoID string) ([]string, error) {
	const q = `
		SELECT t.name
		FROM tags t
		JOIN photo_tags pt ON pt.tag_id = t.id
		WHERE pt.photo_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, q, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*model.Photo, error) {
	var (
		p            model.Photo
		cameraMake   sql.NullString
		cameraModel  sql.NullString
		takenAt      sql.NullTime
		latitude     sql.NullFloat64
		longitude    sql.NullFloat64
		locationName sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Filename,
		&p.OriginalFilename,
		&p.StoragePath,
		&p.ThumbnailPath,
		&p.Width,
		&p.Height,
		&p.FileSize,
		&p.MimeType,
		&cameraMake,
		&cameraModel,
		&takenAt,
		&latitude,
		&longitude,
		&locationName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.CameraMake = cameraMake.String
	p.CameraModel = cameraModel.String
	p.LocationName = locationName.String
	if takenAt.Valid {
		t := takenAt.Time
		p.TakenAt = &t
	}
	if latitude.Valid {
		v := latitude.Float64
		p.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		p.Longitude = &v
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
