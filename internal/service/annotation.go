package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"openlabel/internal/model"
	"openlabel/internal/repository"
)

// AnnotationPatch holds optional updates to an annotation. Nil fields are
// left unchanged. Changing the type clears whichever coordinate payload the
// old type carried, so the patch must supply the payload the new type needs.
type AnnotationPatch struct {
	Type       *model.AnnotationType
	Label      *string
	Confidence *float64
	BBox       *model.BoundingBox
	Points     model.Polygon
}

type AnnotationService interface {
	CreateClassification(ctx context.Context, fileID, createdBy, label string) (*model.Annotation, error)
	CreateObjectDetection(ctx context.Context, fileID, createdBy, label string, bbox model.BoundingBox) (*model.Annotation, error)
	CreateSegmentation(ctx context.Context, fileID, createdBy, label string, points model.Polygon) (*model.Annotation, error)
	Get(ctx context.Context, id string) (*model.Annotation, error)
	ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error)
	Update(ctx context.Context, id string, patch AnnotationPatch) (*model.Annotation, error)
	Delete(ctx context.Context, id string) error
}

type annotationService struct {
	annotations repository.AnnotationRepository
	files       repository.FileRepository
}

func NewAnnotationService(annotations repository.AnnotationRepository, files repository.FileRepository) AnnotationService {
	return &annotationService{annotations: annotations, files: files}
}

func (s *annotationService) CreateClassification(ctx context.Context, fileID, createdBy, label string) (*model.Annotation, error) {
	return s.create(ctx, fileID, createdBy, model.AnnotationTypeClassification, label, nil, nil)
}

func (s *annotationService) CreateObjectDetection(ctx context.Context, fileID, createdBy, label string, bbox model.BoundingBox) (*model.Annotation, error) {
	return s.create(ctx, fileID, createdBy, model.AnnotationTypeObjectDetection, label, &bbox, nil)
}

func (s *annotationService) CreateSegmentation(ctx context.Context, fileID, createdBy, label string, points model.Polygon) (*model.Annotation, error) {
	return s.create(ctx, fileID, createdBy, model.AnnotationTypeSegmentation, label, nil, points)
}

func (s *annotationService) create(
	ctx context.Context,
	fileID, createdBy string,
	typ model.AnnotationType,
	label string,
	bbox *model.BoundingBox,
	points model.Polygon,
) (*model.Annotation, error) {
	meta, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("check file: %w", err)
	}

	now := time.Now().UTC()
	ann := &model.Annotation{
		ID:         uuid.New().String(),
		FileID:     fileID,
		ProjectID:  meta.ProjectID,
		CreatedBy:  createdBy,
		Type:       typ,
		Label:      label,
		Confidence: 1.0,
		BBox:       bbox,
		Points:     points,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := ann.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.annotations.Create(ctx, ann)
	if err != nil {
		return nil, err
	}

	if meta.Status != model.FileStatusAnnotated {
		if err := s.files.UpdateStatus(ctx, fileID, model.FileStatusAnnotated); err != nil {
			return nil, fmt.Errorf("mark file annotated: %w", err)
		}
	}
	return stored, nil
}

func (s *annotationService) Get(ctx context.Context, id string) (*model.Annotation, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	ann, err := s.annotations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnnotationNotFound
		}
		return nil, err
	}
	return ann, nil
}

func (s *annotationService) ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	return s.annotations.ListByFile(ctx, fileID)
}

func (s *annotationService) ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	return s.annotations.ListByProject(ctx, projectID)
}

func (s *annotationService) Update(ctx context.Context, id string, patch AnnotationPatch) (*model.Annotation, error) {
	ann, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != nil && *patch.Type != ann.Type {
		// Stale coordinates from the old type must not survive the switch.
		ann.BBox = nil
		ann.Points = nil
		ann.Type = *patch.Type
	}
	if patch.Label != nil {
		ann.Label = *patch.Label
	}
	if patch.Confidence != nil {
		ann.Confidence = *patch.Confidence
	}
	if patch.BBox != nil {
		ann.BBox = patch.BBox
	}
	if patch.Points != nil {
		ann.Points = patch.Points
	}
	ann.UpdatedAt = time.Now().UTC()

	if err := ann.Validate(); err != nil {
		return nil, err
	}
	if err := s.annotations.Update(ctx, ann); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnnotationNotFound
		}
		return nil, err
	}
	return ann, nil
}

// Delete removes the annotation and flips the parent file back to
// unannotated when it was the last one.
func (s *annotationService) Delete(ctx context.Context, id string) error {
	ann, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.annotations.Delete(ctx, id); err != nil {
		return err
	}

	remaining, err := s.annotations.CountByFile(ctx, ann.FileID)
	if err != nil {
		return fmt.Errorf("count remaining: %w", err)
	}
	if remaining == 0 {
		if err := s.files.UpdateStatus(ctx, ann.FileID, model.FileStatusUnannotated); err != nil {
			return fmt.Errorf("mark file unannotated: %w", err)
		}
	}
	return nil
}
