package mocks

import (
	"context"

	"openlabel/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.FileMeta) (*model.FileMeta, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMeta), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.FileMeta, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMeta), args.Error(1)
}

func (m *MockFileRepository) ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileMeta), args.Error(1)
}

func (m *MockFileRepository) UpdateStatus(ctx context.Context, id string, status model.FileStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
