package postgres

import (
	"context"
	"database/sql"

	"openlabel/internal/model"
	"openlabel/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, project_id, created_by, filename, content_type, data_type, size, width, height, status, storage_path, created_at`

func scanFile(row interface{ Scan(...any) error }) (*model.FileMeta, error) {
	var (
		f             model.FileMeta
		width, height sql.NullInt64
	)
	if err := row.Scan(
		&f.ID,
		&f.ProjectID,
		&f.CreatedBy,
		&f.Filename,
		&f.ContentType,
		&f.Type,
		&f.Size,
		&width,
		&height,
		&f.Status,
		&f.StoragePath,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.Width = int(width.Int64)
	f.Height = int(height.Int64)
	return &f, nil
}

func dimensionValue(v int) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

// Create inserts a new file metadata row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.FileMeta) (*model.FileMeta, error) {
	const q = `
		INSERT INTO files (id, project_id, created_by, filename, content_type, data_type, size, width, height, status, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + fileColumns

	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.ProjectID,
		f.CreatedBy,
		f.Filename,
		f.ContentType,
		f.Type,
		f.Size,
		dimensionValue(f.Width),
		dimensionValue(f.Height),
		f.Status,
		f.StoragePath,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file's metadata by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.FileMeta, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// ListByProject returns all file metadata rows for a project.
func (r *FilePostgres) ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileMeta, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus sets the annotation status of a file.
func (r *FilePostgres) UpdateStatus(ctx context.Context, id string, status model.FileStatus) error {
	const q = `UPDATE files SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a file's metadata row by ID. It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
