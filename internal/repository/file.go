package repository

import (
	"context"

	"openlabel/internal/model"
)

// FileRepository defines data access for file metadata. Binary content lives
// in object storage; rows here only reference it through StoragePath.
type FileRepository interface {
	// Create inserts a new file metadata record and returns the stored row.
	Create(ctx context.Context, f *model.FileMeta) (*model.FileMeta, error)

	// FindByID returns a file's metadata by its ID.
	FindByID(ctx context.Context, id string) (*model.FileMeta, error)

	// ListByProject returns all file metadata for a project.
	ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error)

	// UpdateStatus sets a file's annotation status.
	UpdateStatus(ctx context.Context, id string, status model.FileStatus) error

	// Delete removes a file's metadata row by ID.
	Delete(ctx context.Context, id string) error
}
