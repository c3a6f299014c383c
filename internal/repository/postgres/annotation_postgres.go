package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"openlabel/internal/model"
	"openlabel/internal/repository"
)

// AnnotationPostgres is a PostgreSQL implementation of repository.AnnotationRepository.
// Coordinate payloads (bounding box, polygon points) are stored as nullable
// JSONB columns so the row shape is the same for all annotation variants.
type AnnotationPostgres struct {
	db *sql.DB
}

// NewAnnotationPostgres creates a new AnnotationPostgres repository.
func NewAnnotationPostgres(db *sql.DB) *AnnotationPostgres {
	return &AnnotationPostgres{db: db}
}

var _ repository.AnnotationRepository = (*AnnotationPostgres)(nil)

const annotationColumns = `id, file_id, project_id, created_by, type, label, confidence, bbox, points, created_at, updated_at`

func scanAnnotation(row interface{ Scan(...any) error }) (*model.Annotation, error) {
	var (
		a      model.Annotation
		bbox   []byte
		points []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.FileID,
		&a.ProjectID,
		&a.CreatedBy,
		&a.Type,
		&a.Label,
		&a.Confidence,
		&bbox,
		&points,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if bbox != nil {
		a.BBox = &model.BoundingBox{}
		if err := json.Unmarshal(bbox, a.BBox); err != nil {
			return nil, fmt.Errorf("decode annotation bbox: %w", err)
		}
	}
	if points != nil {
		if err := json.Unmarshal(points, &a.Points); err != nil {
			return nil, fmt.Errorf("decode annotation points: %w", err)
		}
	}
	return &a, nil
}

func encodeCoordinates(a *model.Annotation) (bbox, points []byte, err error) {
	if a.BBox != nil {
		bbox, err = json.Marshal(a.BBox)
		if err != nil {
			return nil, nil, fmt.Errorf("encode annotation bbox: %w", err)
		}
	}
	if a.Points != nil {
		points, err = json.Marshal(a.Points)
		if err != nil {
			return nil, nil, fmt.Errorf("encode annotation points: %w", err)
		}
	}
	return bbox, points, nil
}

// Create inserts a new annotation row and returns the stored record.
func (r *AnnotationPostgres) Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	bbox, points, err := encodeCoordinates(a)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO annotations (id, file_id, project_id, created_by, type, label, confidence, bbox, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + annotationColumns

	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.FileID,
		a.ProjectID,
		a.CreatedBy,
		a.Type,
		a.Label,
		a.Confidence,
		bbox,
		points,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return scanAnnotation(row)
}

// FindByID fetches a single annotation by its ID.
func (r *AnnotationPostgres) FindByID(ctx context.Context, id string) (*model.Annotation, error) {
	const q = `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1`
	return scanAnnotation(r.db.QueryRowContext(ctx, q, id))
}

func (r *AnnotationPostgres) list(ctx context.Context, q string, arg any) ([]model.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Annotation, 0)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByFile returns all annotations attached to a file.
func (r *AnnotationPostgres) ListByFile(ctx context.Context, fileID string) ([]model.Annotation, error) {
	const q = `
		SELECT ` + annotationColumns + `
		FROM annotations
		WHERE file_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, q, fileID)
}

// ListByProject returns all annotations in a project.
func (r *AnnotationPostgres) ListByProject(ctx context.Context, projectID string) ([]model.Annotation, error) {
	const q = `
		SELECT ` + annotationColumns + `
		FROM annotations
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, q, projectID)
}

// Update persists the mutable fields of an annotation. A nil coordinate
// payload writes SQL NULL, which is how a type change clears the field that
// no longer applies.
func (r *AnnotationPostgres) Update(ctx context.Context, a *model.Annotation) error {
	bbox, points, err := encodeCoordinates(a)
	if err != nil {
		return err
	}

	const q = `
		UPDATE annotations
		SET type = $2, label = $3, confidence = $4, bbox = $5, points = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.Type,
		a.Label,
		a.Confidence,
		bbox,
		points,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an annotation by ID. It does not return an error if the row does not exist.
func (r *AnnotationPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM annotations WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// DeleteByFile removes all annotations attached to a file.
func (r *AnnotationPostgres) DeleteByFile(ctx context.Context, fileID string) error {
	const q = `DELETE FROM annotations WHERE file_id = $1`
	_, err := r.db.ExecContext(ctx, q, fileID)
	return err
}

// CountByFile returns the number of annotations attached to a file.
func (r *AnnotationPostgres) CountByFile(ctx context.Context, fileID string) (int, error) {
	const q = `SELECT COUNT(*) FROM annotations WHERE file_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, fileID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
