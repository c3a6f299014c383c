package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"openlabel/internal/model"
	"openlabel/internal/repository"
)

// ProjectPostgres is a PostgreSQL implementation of repository.ProjectRepository.
// Members and label vocabularies are stored as JSONB columns; the project is
// still the aggregate the document-oriented domain model expects.
type ProjectPostgres struct {
	db *sql.DB
}

// NewProjectPostgres creates a new ProjectPostgres repository.
func NewProjectPostgres(db *sql.DB) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

var _ repository.ProjectRepository = (*ProjectPostgres)(nil)

const projectColumns = `id, name, description, created_by, members, data_type, annotation_type, is_public, labels, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	var (
		p       model.Project
		members []byte
		labels  []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CreatedBy,
		&members,
		&p.Settings.DataType,
		&p.Settings.AnnotationType,
		&p.Settings.IsPublic,
		&labels,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &p.Members); err != nil {
		return nil, fmt.Errorf("decode project members: %w", err)
	}
	if err := json.Unmarshal(labels, &p.Settings.Labels); err != nil {
		return nil, fmt.Errorf("decode project labels: %w", err)
	}
	return &p, nil
}

func encodeProjectJSON(p *model.Project) (members, labels []byte, err error) {
	if p.Members == nil {
		p.Members = []model.ProjectMember{}
	}
	if p.Settings.Labels == nil {
		p.Settings.Labels = []string{}
	}
	members, err = json.Marshal(p.Members)
	if err != nil {
		return nil, nil, fmt.Errorf("encode project members: %w", err)
	}
	labels, err = json.Marshal(p.Settings.Labels)
	if err != nil {
		return nil, nil, fmt.Errorf("encode project labels: %w", err)
	}
	return members, labels, nil
}

// Create inserts a new project row and returns the stored record.
func (r *ProjectPostgres) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	members, labels, err := encodeProjectJSON(p)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO projects (id, name, description, created_by, members, data_type, annotation_type, is_public, labels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + projectColumns

	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Description,
		p.CreatedBy,
		members,
		p.Settings.DataType,
		p.Settings.AnnotationType,
		p.Settings.IsPublic,
		labels,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanProject(row)
}

// FindByID fetches a single project by its ID.
func (r *ProjectPostgres) FindByID(ctx context.Context, id string) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

// FindByNameAndCreator fetches the project with the given name created by the given user.
func (r *ProjectPostgres) FindByNameAndCreator(ctx context.Context, name, createdBy string) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE name = $1 AND created_by = $2`
	return scanProject(r.db.QueryRowContext(ctx, q, name, createdBy))
}

// ListByMember returns projects in which the given user appears as a member,
// using LIMIT/OFFSET pagination and a total count.
func (r *ProjectPostgres) ListByMember(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.Project], error) {
	const qCount = `
		SELECT COUNT(*) FROM projects
		WHERE members @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
	`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE members @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Project]{Items: items, Total: total}, nil
}

// Update persists the mutable fields of a project.
func (r *ProjectPostgres) Update(ctx context.Context, p *model.Project) error {
	members, labels, err := encodeProjectJSON(p)
	if err != nil {
		return err
	}

	const q = `
		UPDATE projects
		SET name = $2, description = $3, members = $4, data_type = $5,
		    annotation_type = $6, is_public = $7, labels = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q,
		p.ID,
		p.Name,
		p.Description,
		members,
		p.Settings.DataType,
		p.Settings.AnnotationType,
		p.Settings.IsPublic,
		labels,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a project by ID. It does not return an error if the row does not exist.
func (r *ProjectPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM projects WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
