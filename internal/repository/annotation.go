package repository

import (
	"context"

	"openlabel/internal/model"
)

// AnnotationRepository defines data access for annotations.
type AnnotationRepository interface {
	// Create inserts a new annotation record and returns the stored row.
	Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error)

	// FindByID returns an annotation by its ID.
	FindByID(ctx context.Context, id string) (*model.Annotation, error)

	// ListByFile returns all annotations attached to a file.
	ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error)

	// ListByProject returns all annotations in a project.
	ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error)

	// Update persists the mutable fields of the given annotation, including
	// clearing coordinate payloads set to nil.
	Update(ctx context.Context, a *model.Annotation) error

	// Delete removes an annotation by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByFile removes all annotations attached to a file.
	DeleteByFile(ctx context.Context, fileID string) error

	// CountByFile returns the number of annotations attached to a file.
	CountByFile(ctx context.Context, fileID string) (int, error)
}
