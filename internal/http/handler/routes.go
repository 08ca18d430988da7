package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"photovault/internal/http/middleware"
	"photovault/internal/imaging"
	"photovault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse, call the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, jwtSecret string, authSvc service.AuthService, photoSvc service.PhotoService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	auth := NewAuthHandler(authSvc)
	photos := NewPhotoHandler(photoSvc)

	api := app.Group("/api")
	api.Post("/register", auth.Register)
	api.Post("/login", auth.Login)

	protected := api.Group("", middleware.Auth(jwtSecret))
	protected.Get("/user", auth.CurrentUser)

	protected.Post("/upload", photos.Upload)
	protected.Get("/photos", photos.List)
	protected.Get("/photos/:id", photos.Get)
	protected.Delete("/photos/:id", photos.Delete)
	protected.Post("/photos/:id/edit", photos.Edit)
	protected.Post("/photos/:id/tags", photos.AttachTags)
	protected.Delete("/photos/:id/tags", photos.DetachTags)
	protected.Post("/photos/:id/analyze", photos.Analyze)
	protected.Get("/photo/:id", photos.Original)
	protected.Get("/thumbnail/:id", photos.Thumbnail)
	protected.Get("/tags", photos.Tags)
	protected.Post("/slideshow", photos.Slideshow)
}

// AuthHandler serves account endpoints.
type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	user, err := h.svc.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTooShort),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrInvalidEmail):
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
			return writeError(c, fiber.StatusConflict, "ALREADY_EXISTS", err.Error())
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	token, user, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	user, err := h.svc.GetUser(c.UserContext(), middleware.OwnerID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(user)
}

// PhotoHandler serves photo and tag endpoints.
type PhotoHandler struct {
	svc service.PhotoService
}

func NewPhotoHandler(svc service.PhotoService) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

func (h *PhotoHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
	}

	customTags := splitTagList(c.FormValue("tags"))

	detail, err := h.svc.Upload(c.UserContext(), middleware.OwnerID(c), fh.Filename, data, customTags)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyFile):
			return writeError(c, fiber.StatusBadRequest, "EMPTY_FILE", "file is empty")
		case errors.Is(err, service.ErrFileTooLarge):
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit")
		case errors.Is(err, service.ErrUnsupportedFormat):
			return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "unsupported image format")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

func (h *PhotoHandler) List(c *fiber.Ctx) error {
	params := service.SearchParams{
		Search:    c.Query("search"),
		Tag:       c.Query("tag"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		SortBy:    c.Query("sort_by"),
		Order:     c.Query("order"),
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "per_page", 20),
	}

	page, err := h.svc.Search(c.UserContext(), middleware.OwnerID(c), params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortField) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SORT_FIELD", "invalid sort field")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(page)
}

func (h *PhotoHandler) Get(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	detail, err := h.svc.Get(c.UserContext(), middleware.OwnerID(c), id)
	if err != nil {
		return photoError(c, err)
	}
	return c.JSON(detail)
}

func (h *PhotoHandler) Original(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	rc, photo, err := h.svc.OpenOriginal(c.UserContext(), middleware.OwnerID(c), id)
	if err != nil {
		return photoError(c, err)
	}
	c.Set(fiber.HeaderContentType, photo.MimeType)
	return c.SendStream(rc)
}

func (h *PhotoHandler) Thumbnail(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	rc, _, err := h.svc.OpenThumbnail(c.UserContext(), middleware.OwnerID(c), id)
	if err != nil {
		return photoError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.SendStream(rc)
}

type editRequest struct {
	Crop *struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"crop"`
	Rotate         int  `json:"rotate"`
	FlipHorizontal bool `json:"flip_horizontal"`
	FlipVertical   bool `json:"flip_vertical"`
}

func (h *PhotoHandler) Edit(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	var req editRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	edit := service.EditRequest{
		RotationDeg:    req.Rotate,
		FlipHorizontal: req.FlipHorizontal,
		FlipVertical:   req.FlipVertical,
	}
	if req.Crop != nil {
		edit.Crop = &imaging.CropRect{
			X:      req.Crop.X,
			Y:      req.Crop.Y,
			Width:  req.Crop.Width,
			Height: req.Crop.Height,
		}
	}

	detail, err := h.svc.Edit(c.UserContext(), middleware.OwnerID(c), id, edit)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "photo not found")
		}
		if errors.Is(err, imaging.ErrBadEdit) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EDIT", "invalid edit parameters")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(detail)
}

func (h *PhotoHandler) Delete(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	if err := h.svc.Delete(c.UserContext(), middleware.OwnerID(c), id); err != nil {
		return photoError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (h *PhotoHandler) AttachTags(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	names, ok := parseTagNames(c)
	if !ok {
		return nil
	}
	all, err := h.svc.AttachTags(c.UserContext(), middleware.OwnerID(c), id, names)
	if err != nil {
		return photoError(c, err)
	}
	return c.JSON(fiber.Map{"tags": all})
}

func (h *PhotoHandler) DetachTags(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	names, ok := parseTagNames(c)
	if !ok {
		return nil
	}
	if err := h.svc.DetachTags(c.UserContext(), middleware.OwnerID(c), id, names); err != nil {
		return photoError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PhotoHandler) Tags(c *fiber.Ctx) error {
	tags, err := h.svc.ListTags(c.UserContext(), middleware.OwnerID(c))
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *PhotoHandler) Analyze(c *fiber.Ctx) error {
	id, ok := photoID(c)
	if !ok {
		return nil
	}
	added, err := h.svc.Analyze(c.UserContext(), middleware.OwnerID(c), id)
	if err != nil {
		return photoError(c, err)
	}
	return c.JSON(fiber.Map{"tags": added})
}

type slideshowRequest struct {
	PhotoIDs []string `json:"photo_ids"`
}

func (h *PhotoHandler) Slideshow(c *fiber.Ctx) error {
	var req slideshowRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	items, err := h.svc.Slideshow(c.UserContext(), middleware.OwnerID(c), req.PhotoIDs)
	if err != nil {
		if errors.Is(err, service.ErrForeignPhoto) {
			return writeError(c, fiber.StatusBadRequest, "FOREIGN_PHOTO", "all photos must belong to the caller")
		}
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return c.JSON(fiber.Map{"items": items})
}

// photoID validates the :id route parameter. When the id is malformed the
// error response has already been written and ok is false.
func photoID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

// photoError translates service sentinels into the error envelope.
func photoError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrIDRequired) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "photo not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// parseTagNames accepts {"tags": [...]} or {"tags": "a,b"} bodies. When the
// body is unusable the error response has already been written and ok is
// false.
func parseTagNames(c *fiber.Ctx) ([]string, bool) {
	var req tagsRequest
	if err := c.BodyParser(&req); err != nil {
		var alt struct {
			Tags string `json:"tags"`
		}
		if err2 := c.BodyParser(&alt); err2 != nil {
			_ = writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			return nil, false
		}
		req.Tags = splitTagList(alt.Tags)
	}
	if len(req.Tags) == 0 {
		_ = writeError(c, fiber.StatusBadRequest, "TAGS_REQUIRED", "at least one tag is required")
		return nil, false
	}
	return req.Tags, true
}

func splitTagList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
