package repository

import (
	"context"

	"openlabel/internal/model"
)

// ProjectRepository defines data access for annotation projects using SQL
// queries only. No business logic here, strictly persistence operations.
type ProjectRepository interface {
	// Create inserts a new project record and returns the stored row.
	Create(ctx context.Context, p *model.Project) (*model.Project, error)

	// FindByID returns a project by its ID.
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// FindByNameAndCreator returns the project with the given name created
	// by the given user, or sql.ErrNoRows if none exists.
	FindByNameAndCreator(ctx context.Context, name, createdBy string) (*model.Project, error)

	// ListByMember returns a paginated list of projects in which the given
	// user is a member, and the total row count.
	ListByMember(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.Project], error)

	// Update persists the mutable fields of the given project.
	Update(ctx context.Context, p *model.Project) error

	// Delete removes a project by ID. Dependent file and annotation rows are
	// removed by the schema's cascade rules.
	Delete(ctx context.Context, id string) error
}
