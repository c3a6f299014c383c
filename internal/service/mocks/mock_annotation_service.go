package mocks

import (
	"context"

	"openlabel/internal/model"
	"openlabel/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAnnotationService struct {
	mock.Mock
}

func (m *MockAnnotationService) CreateClassification(ctx context.Context, fileID, createdBy, label string) (*model.Annotation, error) {
	args := m.Called(ctx, fileID, createdBy, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) CreateObjectDetection(ctx context.Context, fileID, createdBy, label string, bbox model.BoundingBox) (*model.Annotation, error) {
	args := m.Called(ctx, fileID, createdBy, label, bbox)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) CreateSegmentation(ctx context.Context, fileID, createdBy, label string, points model.Polygon) (*model.Annotation, error) {
	args := m.Called(ctx, fileID, createdBy, label, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) Get(ctx context.Context, id string) (*model.Annotation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) Update(ctx context.Context, id string, patch service.AnnotationPatch) (*model.Annotation, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
