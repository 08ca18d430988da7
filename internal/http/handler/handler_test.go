package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"photovault/internal/auth"
	"photovault/internal/imaging"
	"photovault/internal/model"
	"photovault/internal/service"
	serviceMocks "photovault/internal/service/mocks"
)

const testSecret = "test-secret"

type testApp struct {
	app    *fiber.App
	db     *sql.DB
	dbMock sqlmock.Sqlmock
	auth   *serviceMocks.MockAuthService
	photos *serviceMocks.MockPhotoService
	token  string
	userID string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ta := &testApp{
		db:     db,
		dbMock: dbMock,
		auth:   new(serviceMocks.MockAuthService),
		photos: new(serviceMocks.MockPhotoService),
		userID: uuid.New().String(),
	}

	ta.token, err = auth.GenerateToken(testSecret, ta.userID, "alice-wonder", time.Hour)
	require.NoError(t, err)

	ta.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(ta.app, db, testSecret, ta.auth, ta.photos)
	return ta
}

func (ta *testApp) request(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ta.token)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		ta.dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy", func(t *testing.T) {
		ta.dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("liveness", func(t *testing.T) {
		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Register", mock.Anything, "alice-wonder", "alice@example.com", "secret1").
			Return(&model.User{ID: "user-id", Username: "alice-wonder"}, nil)

		resp := ta.request(t, http.MethodPost, "/api/register",
			map[string]string{"username": "alice-wonder", "email": "alice@example.com", "password": "secret1"})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		ta.auth.AssertExpectations(t)
	})

	t.Run("validation failure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrPasswordTooShort)

		resp := ta.request(t, http.MethodPost, "/api/register",
			map[string]string{"username": "alice-wonder", "email": "alice@example.com", "password": "123"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", decodeError(t, resp).Error.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrUsernameTaken)

		resp := ta.request(t, http.MethodPost, "/api/register",
			map[string]string{"username": "alice-wonder", "email": "alice@example.com", "password": "secret1"})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_EXISTS", decodeError(t, resp).Error.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Login", mock.Anything, "alice-wonder", "secret1").
			Return("a.jwt.token", &model.User{ID: "user-id"}, nil)

		resp := ta.request(t, http.MethodPost, "/api/login",
			map[string]string{"username": "alice-wonder", "password": "secret1"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "a.jwt.token", body["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return("", nil, service.ErrInvalidCredentials)

		resp := ta.request(t, http.MethodPost, "/api/login",
			map[string]string{"username": "alice-wonder", "password": "wrong"})

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Error.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/user", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		ta := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("claims reach the handler", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("GetUser", mock.Anything, ta.userID).
			Return(&model.User{ID: ta.userID, Username: "alice-wonder"}, nil)

		resp := ta.request(t, http.MethodGet, "/api/user", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.auth.AssertExpectations(t)
	})

	t.Run("query string token works for image urls", func(t *testing.T) {
		ta := newTestApp(t)
		photoID := uuid.New().String()
		ta.photos.On("OpenThumbnail", mock.Anything, ta.userID, photoID).
			Return(io.NopCloser(strings.NewReader("jpeg-bytes")), &model.Photo{ID: photoID}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/thumbnail/"+photoID+"?token="+ta.token, nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get(fiber.HeaderContentType))
	})
}

func TestListPhotos(t *testing.T) {
	t.Run("query parameters map onto search params", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("Search", mock.Anything, ta.userID, service.SearchParams{
			Search:    "beach",
			Tag:       "year:2024",
			StartDate: "2024-01-01",
			EndDate:   "2024-12-31",
			SortBy:    "taken_at",
			Order:     "asc",
			Page:      2,
			PerPage:   5,
		}).Return(&service.PhotoPage{Items: []service.PhotoDetail{}, Page: 2, PageSize: 5}, nil)

		resp := ta.request(t, http.MethodGet,
			"/api/photos?search=beach&tag=year:2024&start_date=2024-01-01&end_date=2024-12-31&sort_by=taken_at&order=asc&page=2&per_page=5", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.photos.AssertExpectations(t)
	})

	t.Run("invalid sort field", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("Search", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrInvalidSortField)

		resp := ta.request(t, http.MethodGet, "/api/photos?sort_by=password_hash", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_SORT_FIELD", decodeError(t, resp).Error.Code)
	})
}

func TestGetPhoto(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("Get", mock.Anything, ta.userID, id).
			Return(&service.PhotoDetail{Photo: model.Photo{ID: id}, Tags: []string{"year:2024"}}, nil)

		resp := ta.request(t, http.MethodGet, "/api/photos/"+id, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var detail service.PhotoDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.Equal(t, []string{"year:2024"}, detail.Tags)
	})

	t.Run("invalid id format", func(t *testing.T) {
		ta := newTestApp(t)

		resp := ta.request(t, http.MethodGet, "/api/photos/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("Get", mock.Anything, ta.userID, id).
			Return(nil, service.ErrNotFound)

		resp := ta.request(t, http.MethodGet, "/api/photos/"+id, nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
}

func TestUploadPhoto(t *testing.T) {
	newUpload := func(t *testing.T, withFile bool, tags string) (*bytes.Buffer, string) {
		t.Helper()
		buf := new(bytes.Buffer)
		w := multipart.NewWriter(buf)
		if withFile {
			fw, err := w.CreateFormFile("file", "cat.png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("png-bytes"))
			require.NoError(t, err)
		}
		if tags != "" {
			require.NoError(t, w.WriteField("tags", tags))
		}
		require.NoError(t, w.Close())
		return buf, w.FormDataContentType()
	}

	t.Run("success with custom tags", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("Upload", mock.Anything, ta.userID, "cat.png", []byte("png-bytes"), []string{"sunset", "beach"}).
			Return(&service.PhotoDetail{Photo: model.Photo{ID: "photo-id"}}, nil)

		body, contentType := newUpload(t, true, "sunset, beach")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set(fiber.HeaderContentType, contentType)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ta.token)
		resp, err := ta.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		ta.photos.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		ta := newTestApp(t)

		body, contentType := newUpload(t, false, "")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set(fiber.HeaderContentType, contentType)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ta.token)
		resp, err := ta.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrUnsupportedFormat)

		body, contentType := newUpload(t, true, "")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set(fiber.HeaderContentType, contentType)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ta.token)
		resp, err := ta.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})
}

func TestEditPhoto(t *testing.T) {
	t.Run("crop and rotate", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("Edit", mock.Anything, ta.userID, id, mock.MatchedBy(func(req service.EditRequest) bool {
			return req.Crop != nil && req.Crop.Width == 100 && req.RotationDeg == 90
		})).Return(&service.PhotoDetail{Photo: model.Photo{ID: id}}, nil)

		resp := ta.request(t, http.MethodPost, "/api/photos/"+id+"/edit", map[string]any{
			"crop":   map[string]int{"x": 0, "y": 0, "width": 100, "height": 80},
			"rotate": 90,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.photos.AssertExpectations(t)
	})

	t.Run("invalid edit parameters", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("Edit", mock.Anything, ta.userID, id, mock.Anything).
			Return(nil, imaging.ErrBadEdit)

		resp := ta.request(t, http.MethodPost, "/api/photos/"+id+"/edit",
			map[string]any{"rotate": 45})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_EDIT", decodeError(t, resp).Error.Code)
	})
}

func TestTagRoutes(t *testing.T) {
	t.Run("attach with list body", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("AttachTags", mock.Anything, ta.userID, id, []string{"sunset", "beach"}).
			Return([]string{"beach", "sunset", "year:2024"}, nil)

		resp := ta.request(t, http.MethodPost, "/api/photos/"+id+"/tags",
			map[string]any{"tags": []string{"sunset", "beach"}})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("attach with comma-joined string body", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("AttachTags", mock.Anything, ta.userID, id, []string{"sunset", "beach"}).
			Return([]string{"beach", "sunset"}, nil)

		resp := ta.request(t, http.MethodPost, "/api/photos/"+id+"/tags",
			map[string]any{"tags": "sunset, beach"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.photos.AssertExpectations(t)
	})

	t.Run("empty tags rejected", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()

		resp := ta.request(t, http.MethodPost, "/api/photos/"+id+"/tags",
			map[string]any{"tags": []string{}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "TAGS_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("detach", func(t *testing.T) {
		ta := newTestApp(t)
		id := uuid.New().String()
		ta.photos.On("DetachTags", mock.Anything, ta.userID, id, []string{"sunset"}).
			Return(nil)

		resp := ta.request(t, http.MethodDelete, "/api/photos/"+id+"/tags",
			map[string]any{"tags": []string{"sunset"}})

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("list owner tags", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("ListTags", mock.Anything, ta.userID).
			Return([]model.Tag{{ID: "t1", Name: "year:2024", Origin: model.TagOriginAuto}}, nil)

		resp := ta.request(t, http.MethodGet, "/api/tags", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestDeletePhoto(t *testing.T) {
	ta := newTestApp(t)
	id := uuid.New().String()
	ta.photos.On("Delete", mock.Anything, ta.userID, id).Return(nil)

	resp := ta.request(t, http.MethodDelete, "/api/photos/"+id, nil)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	ta.photos.AssertExpectations(t)
}

func TestSlideshow(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ids := []string{uuid.New().String(), uuid.New().String()}
		ta.photos.On("Slideshow", mock.Anything, ta.userID, ids).
			Return([]service.SlideshowItem{
				{Photo: model.Photo{ID: ids[0]}, URL: "https://minio/a"},
				{Photo: model.Photo{ID: ids[1]}, URL: "https://minio/b"},
			}, nil)

		resp := ta.request(t, http.MethodPost, "/api/slideshow",
			map[string]any{"photo_ids": ids})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("foreign photo", func(t *testing.T) {
		ta := newTestApp(t)
		ta.photos.On("Slideshow", mock.Anything, ta.userID, mock.Anything).
			Return(nil, service.ErrForeignPhoto)

		resp := ta.request(t, http.MethodPost, "/api/slideshow",
			map[string]any{"photo_ids": []string{uuid.New().String()}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FOREIGN_PHOTO", decodeError(t, resp).Error.Code)
	})
}
