package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"openlabel/internal/model"
	"openlabel/internal/repository"
	"openlabel/internal/storage"
)

type FileService interface {
	Upload(ctx context.Context, r io.Reader, projectID, createdBy, filename, contentType string) (*model.FileMeta, error)
	Get(ctx context.Context, id string) (*model.FileMeta, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *model.FileMeta, error)
	PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error)
	ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error)
	Delete(ctx context.Context, id string) error
}

type fileService struct {
	files       repository.FileRepository
	annotations repository.AnnotationRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	store       storage.Storage
	log         *slog.Logger
}

func NewFileService(
	files repository.FileRepository,
	annotations repository.AnnotationRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	store storage.Storage,
	log *slog.Logger,
) FileService {
	return &fileService{
		files:       files,
		annotations: annotations,
		projects:    projects,
		users:       users,
		store:       store,
		log:         log,
	}
}

// Upload stores the content in the blob store under a generated key and then
// records the metadata row. When the row insert fails the blob is removed
// again so the two stores do not drift apart.
func (s *fileService) Upload(ctx context.Context, r io.Reader, projectID, createdBy, filename, contentType string) (*model.FileMeta, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	dataType, err := model.DataTypeFromMIME(contentType)
	if err != nil {
		return nil, err
	}
	if dataType == model.DataTypeVideo {
		return nil, ErrVideoNotImplemented
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("check project: %w", err)
	}
	exists, err := s.users.Exists(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("check uploader: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	meta := &model.FileMeta{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		CreatedBy:   createdBy,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Type:        dataType,
		Size:        int64(len(data)),
		Status:      model.FileStatusUnannotated,
		CreatedAt:   time.Now().UTC(),
	}

	if dataType == model.DataTypeImage {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	meta.StoragePath = path.Join("files", meta.ID+filepath.Ext(meta.Filename))

	_, err = s.store.Put(ctx, meta.StoragePath, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        meta.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": meta.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	stored, err := s.files.Create(ctx, meta)
	if err != nil {
		if delErr := s.store.Delete(ctx, meta.StoragePath); delErr != nil {
			s.log.Warn("rollback blob after failed insert", "key", meta.StoragePath, "error", delErr)
		}
		return nil, err
	}
	return stored, nil
}

func (s *fileService) Get(ctx context.Context, id string) (*model.FileMeta, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	meta, err := s.files.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return meta, nil
}

func (s *fileService) Download(ctx context.Context, id string) (io.ReadCloser, *model.FileMeta, error) {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, meta.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch content: %w", err)
	}
	return rc, meta, nil
}

func (s *fileService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, meta.StoragePath, expiry)
}

func (s *fileService) ListByProject(ctx context.Context, projectID string) ([]model.FileMeta, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	return s.files.ListByProject(ctx, projectID)
}

// Delete removes the blob, the annotations attached to the file, and the
// metadata row, in that order.
func (s *fileService) Delete(ctx context.Context, id string) error {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, meta.StoragePath); err != nil {
		s.log.Warn("delete blob", "file_id", id, "key", meta.StoragePath, "error", err)
	}
	if err := s.annotations.DeleteByFile(ctx, id); err != nil {
		return fmt.Errorf("delete annotations: %w", err)
	}
	return s.files.Delete(ctx, id)
}
