package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"openlabel/internal/model"
	"openlabel/internal/repository"
	"openlabel/internal/storage"
)

var ErrProjectNameRequired = errors.New("project name is required")

// CreateProjectInput carries the caller-supplied fields for a new project.
type CreateProjectInput struct {
	Name           string
	Description    string
	CreatedBy      string
	DataType       model.DataType
	AnnotationType model.AnnotationType
	IsPublic       bool
	Labels         []string
}

// ProjectPatch holds optional updates. Nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Labels      []string
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	ListByMember(ctx context.Context, userID string, page repository.PageQuery) (*repository.PageResult[model.Project], error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectService struct {
	projects repository.ProjectRepository
	files    repository.FileRepository
	users    repository.UserRepository
	store    storage.Storage
	log      *slog.Logger
}

func NewProjectService(
	projects repository.ProjectRepository,
	files repository.FileRepository,
	users repository.UserRepository,
	store storage.Storage,
	log *slog.Logger,
) ProjectService {
	return &projectService{projects: projects, files: files, users: users, store: store, log: log}
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrProjectNameRequired
	}

	exists, err := s.users.Exists(ctx, in.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("check creator: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	_, err = s.projects.FindByNameAndCreator(ctx, in.Name, in.CreatedBy)
	switch {
	case err == nil:
		return nil, ErrProjectNameExists
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check project name: %w", err)
	}

	now := time.Now().UTC()
	project := &model.Project{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		Members: []model.ProjectMember{
			{UserID: in.CreatedBy, JoinedAt: now},
		},
		Settings: model.ProjectSettings{
			DataType:       in.DataType,
			AnnotationType: in.AnnotationType,
			IsPublic:       in.IsPublic,
			Labels:         in.Labels,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListByMember(ctx context.Context, userID string, page repository.PageQuery) (*repository.PageResult[model.Project], error) {
	if userID == "" {
		return nil, ErrIDRequired
	}
	return s.projects.ListByMember(ctx, userID, page)
}

func (s *projectService) Update(ctx context.Context, id string, patch ProjectPatch) (*model.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = name
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	if patch.IsPublic != nil {
		project.Settings.IsPublic = *patch.IsPublic
	}
	if patch.Labels != nil {
		project.Settings.Labels = patch.Labels
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Delete removes the project row along with every file blob that belongs to
// it. Row deletes cascade in the database, so only the blobs need explicit
// cleanup. A blob that fails to delete is logged and skipped so one missing
// object cannot wedge the whole teardown.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	files, err := s.files.ListByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("list project files: %w", err)
	}
	for _, f := range files {
		if err := s.store.Delete(ctx, f.StoragePath); err != nil {
			s.log.Warn("delete blob", "file_id", f.ID, "key", f.StoragePath, "error", err)
		}
	}

	return s.projects.Delete(ctx, id)
}
