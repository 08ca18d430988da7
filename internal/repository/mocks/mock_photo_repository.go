package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"photovault/internal/model"
	"photovault/internal/repository"
)

type MockPhotoRepository struct {
	mock.Mock
}

func (m *MockPhotoRepository) Create(ctx context.Context, photo *model.Photo) (*model.Photo, error) {
	args := m.Called(ctx, photo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Photo), args.Error(1)
}

func (m *MockPhotoRepository) FindByID(ctx context.Context, ownerID, id string) (*model.Photo, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Photo), args.Error(1)
}

func (m *MockPhotoRepository) FindByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Photo, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Photo), args.Error(1)
}

func (m *MockPhotoRepository) List(ctx context.Context, f repository.PhotoFilter) (*repository.PageResult[model.Photo], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Photo]), args.Error(1)
}

func (m *MockPhotoRepository) UpdateImage(ctx context.Context, ownerID, id string, width, height int, size int64, mimeType string) error {
	args := m.Called(ctx, ownerID, id, width, height, size, mimeType)
	return args.Error(0)
}

func (m *MockPhotoRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockPhotoRepository) TagNames(ctx context.Context, photoID string) ([]string, error) {
	args := m.Called(ctx, photoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
