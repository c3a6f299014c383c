package mocks

import (
	"context"

	"openlabel/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAnnotationRepository struct {
	mock.Mock
}

func (m *MockAnnotationRepository) Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationRepository) FindByID(ctx context.Context, id string) (*model.Annotation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationRepository) ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Annotation), args.Error(1)
}

func (m *MockAnnotationRepository) ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Annotation), args.Error(1)
}

func (m *MockAnnotationRepository) Update(ctx context.Context, a *model.Annotation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnnotationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAnnotationRepository) DeleteByFile(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

func (m *MockAnnotationRepository) CountByFile(ctx context.Context, fileID string) (int, error) {
	args := m.Called(ctx, fileID)
	return args.Int(0), args.Error(1)
}
