package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"photovault/internal/model"
	"photovault/internal/service"
)

type MockPhotoService struct {
	mock.Mock
}

func (m *MockPhotoService) Upload(ctx context.Context, ownerID, originalFilename string, data []byte, customTags []string) (*service.PhotoDetail, error) {
	args := m.Called(ctx, ownerID, originalFilename, data, customTags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PhotoDetail), args.Error(1)
}

func (m *MockPhotoService) Search(ctx context.Context, ownerID string, p service.SearchParams) (*service.PhotoPage, error) {
	args := m.Called(ctx, ownerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PhotoPage), args.Error(1)
}

func (m *MockPhotoService) Get(ctx context.Context, ownerID, id string) (*service.PhotoDetail, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PhotoDetail), args.Error(1)
}

func (m *MockPhotoService) OpenOriginal(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error) {
	args := m.Called(ctx, ownerID, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var photo *model.Photo
	if args.Get(1) != nil {
		photo = args.Get(1).(*model.Photo)
	}
	return rc, photo, args.Error(2)
}

func (m *MockPhotoService) OpenThumbnail(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Photo, error) {
	args := m.Called(ctx, ownerID, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var photo *model.Photo
	if args.Get(1) != nil {
		photo = args.Get(1).(*model.Photo)
	}
	return rc, photo, args.Error(2)
}

func (m *MockPhotoService) Edit(ctx context.Context, ownerID, id string, req service.EditRequest) (*service.PhotoDetail, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PhotoDetail), args.Error(1)
}

func (m *MockPhotoService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockPhotoService) AttachTags(ctx context.Context, ownerID, photoID string, names []string) ([]string, error) {
	args := m.Called(ctx, ownerID, photoID, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPhotoService) DetachTags(ctx context.Context, ownerID, photoID string, names []string) error {
	args := m.Called(ctx, ownerID, photoID, names)
	return args.Error(0)
}

func (m *MockPhotoService) ListTags(ctx context.Context, ownerID string) ([]model.Tag, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockPhotoService) Analyze(ctx context.Context, ownerID, id string) ([]string, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPhotoService) Slideshow(ctx context.Context, ownerID string, ids []string) ([]service.SlideshowItem, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SlideshowItem), args.Error(1)
}
