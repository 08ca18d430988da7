package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"photovault/internal/model"
)

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) Upsert(ctx context.Context, name string, origin model.TagOrigin) (*model.Tag, error) {
	args := m.Called(ctx, name, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) Associate(ctx context.Context, photoID, tagID string) (bool, error) {
	args := m.Called(ctx, photoID, tagID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTagRepository) Dissociate(ctx context.Context, photoID, tagID string) error {
	args := m.Called(ctx, photoID, tagID)
	return args.Error(0)
}

func (m *MockTagRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Tag, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}
