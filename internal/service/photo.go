package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photovault/internal/analyzer"
	"photovault/internal/config"
	"photovault/internal/exif"
	"photovault/internal/imaging"
	"photovault/internal/model"
	"photovault/internal/repository"
	"photovault/internal/storage"
	"photovault/internal/tagging"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("photo not found")
	ErrEmptyFile         = errors.New("file is empty")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrForeignPhoto      = errors.New("photo does not belong to the caller")
)

// allowedExtensions is the upload extension allow-list.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// sortColumns maps API sort field names onto photo table columns. Anything
// outside this map is rejected before SQL is built.
var sortColumns = map[string]string{
	"created_at":        "created_at",
	"taken_at":          "taken_at",
	"file_size":         "file_size",
	"original_filename": "original_filename",
	"width":             "width",
	"height":            "height",
}

const (
	defaultPageSize = 20
	maxPageSize     = 100

	originalPrefix  = "photos"
	thumbnailPrefix = "thumbs"

	slideshowURLExpiry = time.Hour
)

// PhotoDetail is the service-level DTO for a photo plus its tag names.
type PhotoDetail struct {
	model.Photo
	Tags []string `json:"tags"`
}

// PhotoPage is the paginated search result.
type PhotoPage struct {
	Items    []PhotoDetail `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Pages    int           `json:"pages"`
}

// SearchParams carries the raw query parameters for photo listing. Date
// strings use YYYY-MM-DD; unparseable dates are ignored rather than
// rejected.
type SearchParams struct {
	Search    string
	Tag       string
	StartDate string
	EndDate   string
	SortBy    string
	Order     string
	Page      int
	PerPage   int
}

// SlideshowItem pairs a photo with a time-limited download URL.
type SlideshowItem struct {
	Photo model.Photo `json:"photo"`
	URL   string      `json:"url"`
}

// EditRequest describes an image edit. Zero values mean "skip that step".
type EditRequest struct {
	Crop           *imaging.CropRect
	RotationDeg    int
	FlipHorizontal bool
	FlipVertical   bool
}

// PhotoService defines the photo use cases. Every operation is scoped to an
// owner; a photo belonging to someone else behaves exactly like a missing
// one.
type PhotoService interface {
	// Upload stores the image and its thumbnail, persists the photo row,
	// and attaches derived, provider and custom tags. Provider failure
	// degrades to fewer tags, never to a failed upload.
	Upload(ctx context.Context, ownerID, originalFilename string, data []byte, customTags []string) (*PhotoDetail, error)

	// Search runs the compound owner-scoped filter with pagination.
	Search(ctx context.Context, ownerID string, p SearchParams) (*PhotoPage, error)

	// Get returns a single photo with its tags.
	Get(ctx context.Context, ownerID, id string) (*PhotoDetail, error)

	// OpenOriginal streams the stored original image.
	OpenOriginal(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error)

	// OpenThumbnail streams the stored thumbnail.
	OpenThumbnail(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error)

	// Edit applies crop/rotate/flip, re-encodes and re-uploads the image
	// and its thumbnail, and updates the stored dimensions.
	Edit(ctx context.Context, ownerID, id string, req EditRequest) (*PhotoDetail, error)

	// Delete removes the photo's objects and row; tag links cascade.
	Delete(ctx context.Context, ownerID, id string) error

	// AttachTags creates custom tags as needed and links them to the
	// photo, returning the photo's full tag list afterwards.
	AttachTags(ctx context.Context, ownerID, photoID string, names []string) ([]string, error)

	// DetachTags removes the named tags from the photo. Names that are
	// not attached are ignored. Tag rows themselves are never deleted.
	DetachTags(ctx context.Context, ownerID, photoID string, names []string) error

	// ListTags returns every tag attached to any of the owner's photos.
	ListTags(ctx context.Context, ownerID string) ([]model.Tag, error)

	// Analyze re-runs the content analyzer on a stored photo and attaches
	// the resulting labels, returning the labels newly linked.
	Analyze(ctx context.Context, ownerID, id string) ([]string, error)

	// Slideshow validates that every id belongs to the owner and returns
	// the photos with presigned download URLs, in the requested order.
	Slideshow(ctx context.Context, ownerID string, ids []string) ([]SlideshowItem, error)
}

type photoService struct {
	store    storage.Storage
	photos   repository.PhotoRepository
	tags     repository.TagRepository
	analyzer analyzer.Analyzer
	cfg      config.UploadConfig
	timeout  time.Duration // per-call analyzer deadline
}

// NewPhotoService constructs a PhotoService.
func NewPhotoService(store storage.Storage, photos repository.PhotoRepository, tags repository.TagRepository, an analyzer.Analyzer, cfg config.UploadConfig, analyzerTimeout time.Duration) PhotoService {
	return &photoService{
		store:    store,
		photos:   photos,
		tags:     tags,
		analyzer: an,
		cfg:      cfg,
		timeout:  analyzerTimeout,
	}
}

func (s *photoService) Upload(ctx context.Context, ownerID, originalFilename string, data []byte, customTags []string) (*PhotoDetail, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFormat
	}

	info, err := imaging.Probe(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	md := exif.Extract(bytes.NewReader(data))

	id := uuid.New().String()
	genName := id + ext
	key := filepath.ToSlash(filepath.Join(originalPrefix, genName))
	thumbKey := filepath.ToSlash(filepath.Join(thumbnailPrefix, id+".jpg"))

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: info.MimeType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	thumb, err := imaging.Thumbnail(data, s.cfg.ThumbnailDim)
	if err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	if _, err := s.store.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutObjectOptions{
		Size:        int64(len(thumb)),
		ContentType: "image/jpeg",
	}); err != nil {
		s.discard(ctx, key)
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	now := time.Now().UTC()
	photo := &model.Photo{
		ID:               id,
		OwnerID:          ownerID,
		Filename:         genName,
		OriginalFilename: originalFilename,
		StoragePath:      objInfo.Key,
		ThumbnailPath:    thumbKey,
		Width:            info.Width,
		Height:           info.Height,
		FileSize:         objInfo.Size,
		MimeType:         info.MimeType,
		CameraMake:       md.CameraMake,
		CameraModel:      md.CameraModel,
		TakenAt:          md.CapturedAt,
		Latitude:         md.Latitude,
		Longitude:        md.Longitude,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.photos.Create(ctx, photo)
	if err != nil {
		// Rollback: remove both objects so storage does not leak
		s.discard(ctx, key)
		s.discard(ctx, thumbKey)
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	derived := tagging.Derive(md, info.Width, info.Height)
	if _, err := s.EnsureTags(ctx, stored.ID, derived, model.TagOriginAuto); err != nil {
		return nil, fmt.Errorf("attach derived tags: %w", err)
	}

	s.analyzeAndTag(ctx, stored.ID, data, info.MimeType)

	if len(customTags) > 0 {
		custom := tagging.SplitCompound(customTags)
		if _, err := s.EnsureTags(ctx, stored.ID, custom, model.TagOriginCustom); err != nil {
			return nil, fmt.Errorf("attach custom tags: %w", err)
		}
	}

	return s.detail(ctx, stored)
}

// analyzeAndTag calls the external analyzer under its own timeout and
// attaches whatever labels come back. Any failure is logged and swallowed:
// content labels are additive, uploads must not depend on them.
func (s *photoService) analyzeAndTag(ctx context.Context, photoID string, data []byte, mimeType string) {
	actx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	labels, err := s.analyzer.Analyze(actx, data, mimeType)
	if err != nil {
		logJSON(map[string]any{
			"level":    "warn",
			"event":    "analyzer_failed",
			"photo_id": photoID,
			"error":    err.Error(),
		})
		return
	}
	if len(labels) == 0 {
		return
	}
	if _, err := s.EnsureTags(ctx, photoID, tagging.SplitCompound(labels), model.TagOriginAuto); err != nil {
		logJSON(map[string]any{
			"level":    "warn",
			"event":    "analyzer_tags_failed",
			"photo_id": photoID,
			"error":    err.Error(),
		})
	}
}

// EnsureTags makes every named tag exist and be linked to the photo. Names
// are trimmed and empties skipped; existing tags keep their original origin.
// It returns the names that gained a new association on this call.
func (s *photoService) EnsureTags(ctx context.Context, photoID string, names []string, origin model.TagOrigin) ([]string, error) {
	added := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.tags.Upsert(ctx, name, origin)
		if err != nil {
			return added, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		created, err := s.tags.Associate(ctx, photoID, tag.ID)
		if err != nil {
			return added, fmt.Errorf("associate tag %q: %w", name, err)
		}
		if created {
			added = append(added, tag.Name)
		}
	}
	return added, nil
}

func (s *photoService) Search(ctx context.Context, ownerID string, p SearchParams) (*PhotoPage, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSortField, sortBy)
	}
	descending := strings.ToLower(p.Order) != "asc"

	filter := repository.PhotoFilter{
		OwnerID:    ownerID,
		FreeText:   strings.TrimSpace(p.Search),
		TagName:    strings.TrimSpace(p.Tag),
		SortColumn: column,
		Descending: descending,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	// Malformed dates are ignored, not rejected
	if t, err := time.Parse("2006-01-02", p.StartDate); err == nil {
		filter.TakenFrom = &t
	}
	if t, err := time.Parse("2006-01-02", p.EndDate); err == nil {
		// inclusive end date: everything before the start of the next day
		u := t.AddDate(0, 0, 1)
		filter.TakenUntil = &u
	}

	res, err := s.photos.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PhotoDetail, 0, len(res.Items))
	for i := range res.Items {
		names, err := s.photos.TagNames(ctx, res.Items[i].ID)
		if err != nil {
			return nil, err
		}
		items = append(items, PhotoDetail{Photo: res.Items[i], Tags: names})
	}

	return &PhotoPage{
		Items:    items,
		Total:    res.Total,
		Page:     page,
		PageSize: perPage,
		Pages:    int(math.Ceil(float64(res.Total) / float64(perPage))),
	}, nil
}

func (s *photoService) Get(ctx context.Context, ownerID, id string) (*PhotoDetail, error) {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, photo)
}

func (s *photoService) OpenOriginal(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error) {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, photo.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open original: %w", err)
	}
	return rc, photo, nil
}

func (s *photoService) OpenThumbnail(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error) {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, photo.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open thumbnail: %w", err)
	}
	return rc, photo, nil
}

func (s *photoService) Edit(ctx context.Context, ownerID, id string, req EditRequest) (*PhotoDetail, error) {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, photo.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("fetch original: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}

	edited, width, height, err := imaging.Edit(data, imaging.EditOptions{
		Crop:           req.Crop,
		RotationDeg:    req.RotationDeg,
		FlipHorizontal: req.FlipHorizontal,
		FlipVertical:   req.FlipVertical,
	})
	if err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	// Edits re-encode to JPEG regardless of the source format
	if _, err := s.store.Put(ctx, photo.StoragePath, bytes.NewReader(edited), storage.PutObjectOptions{
		Size:        int64(len(edited)),
		ContentType: "image/jpeg",
	}); err != nil {
		return nil, fmt.Errorf("upload edited image: %w", err)
	}

	thumb, err := imaging.Thumbnail(edited, s.cfg.ThumbnailDim)
	if err != nil {
		return nil, fmt.Errorf("regenerate thumbnail: %w", err)
	}
	if _, err := s.store.Put(ctx, photo.ThumbnailPath, bytes.NewReader(thumb), storage.PutObjectOptions{
		Size:        int64(len(thumb)),
		ContentType: "image/jpeg",
	}); err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	if err := s.photos.UpdateImage(ctx, ownerID, id, width, height, int64(len(edited)), "image/jpeg"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.Get(ctx, ownerID, id)
}

func (s *photoService) Delete(ctx context.Context, ownerID, id string) error {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, photo.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// Thumbnail loss is recoverable; the row delete still proceeds
	s.discard(ctx, photo.ThumbnailPath)
	return s.photos.Delete(ctx, ownerID, id)
}

func (s *photoService) AttachTags(ctx context.Context, ownerID, photoID string, names []string) ([]string, error) {
	photo, err := s.find(ctx, ownerID, photoID)
	if err != nil {
		return nil, err
	}
	if _, err := s.EnsureTags(ctx, photo.ID, tagging.SplitCompound(names), model.TagOriginCustom); err != nil {
		return nil, err
	}
	return s.photos.TagNames(ctx, photo.ID)
}

func (s *photoService) DetachTags(ctx context.Context, ownerID, photoID string, names []string) error {
	photo, err := s.find(ctx, ownerID, photoID)
	if err != nil {
		return err
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.tags.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return err
		}
		if err := s.tags.Dissociate(ctx, photo.ID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *photoService) ListTags(ctx context.Context, ownerID string) ([]model.Tag, error) {
	return s.tags.ListByOwner(ctx, ownerID)
}

func (s *photoService) Analyze(ctx context.Context, ownerID, id string) ([]string, error) {
	photo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	rc, _, err := s.store.Get(ctx, photo.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("fetch original: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}

	actx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	labels, err := s.analyzer.Analyze(actx, data, photo.MimeType)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return s.EnsureTags(ctx, photo.ID, tagging.SplitCompound(labels), model.TagOriginAuto)
}

func (s *photoService) Slideshow(ctx context.Context, ownerID string, ids []string) ([]SlideshowItem, error) {
	if len(ids) == 0 {
		return []SlideshowItem{}, nil
	}
	photos, err := s.photos.FindByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if len(photos) != len(ids) {
		return nil, ErrForeignPhoto
	}
	items := make([]SlideshowItem, 0, len(photos))
	for _, p := range photos {
		url, err := s.store.PresignGet(ctx, p.StoragePath, slideshowURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", p.ID, err)
		}
		items = append(items, SlideshowItem{Photo: p, URL: url})
	}
	return items, nil
}

// find loads an owner's photo, translating missing rows (and rows owned by
// someone else) into ErrNotFound.
func (s *photoService) find(ctx context.Context, ownerID, id string) (*model.Photo, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	photo, err := s.photos.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

func (s *photoService) detail(ctx context.Context, photo *model.Photo) (*PhotoDetail, error) {
	names, err := s.photos.TagNames(ctx, photo.ID)
	if err != nil {
		return nil, err
	}
	return &PhotoDetail{Photo: *photo, Tags: names}, nil
}

// discard deletes an object, logging failures instead of returning them.
func (s *photoService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logJSON(map[string]any{
			"level": "warn",
			"event": "storage_cleanup_failed",
			"key":   key,
			"error": err.Error(),
		})
	}
}

func logJSON(fields map[string]any) {
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(fields)
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(b))
}
