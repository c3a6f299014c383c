package mocks

import (
	"context"
	"io"
	"time"

	"openlabel/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, r io.Reader, projectID, createdBy, filename, contentType string) (*model.FileMeta, error) {
	args := m.Called(ctx, r, projectID, createdBy, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMeta), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, id string) (*model.FileMeta, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMeta), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, id string) (io.ReadCloser, *model.FileMeta, error) {
	args := m.Called(ctx, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var meta *model.FileMeta
	if args.Get(1) != nil {
		meta = args.Get(1).(*model.FileMeta)
	}
	return rc, meta, args.Error(2)
}

func (m *MockFileService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileMeta), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
