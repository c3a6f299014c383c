// Package export builds downloadable dataset archives from a project's files
// and annotations. Each supported format is a strategy that fills a ZIP
// archive; the Exporter resolves the project, fans the data out to the
// strategy, and guarantees no partial archive is left behind on failure.
package export

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"openlabel/internal/model"
	"openlabel/internal/repository"
	"openlabel/internal/storage"
)

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrFileNotFound           = errors.New("file not found")
	ErrFormatNotSupported     = errors.New("export format not supported")
	ErrAnnotationNotSupported = errors.New("annotation type not supported by export format")
	ErrInvalidOptions         = errors.New("invalid export options")
)

// Options carry per-request export parameters. ValidationRatio only applies
// to formats that split the dataset.
type Options struct {
	ValidationRatio float64
}

// strategy fills an open ZIP archive with one format's rendition of the
// project. Implementations never touch the archive lifecycle; the Exporter
// owns creation and cleanup.
type strategy interface {
	formatName() string
	populate(ctx context.Context, project *model.Project, files []model.FileMeta, annotations []model.Annotation, zw *zip.Writer) error
}

type Exporter struct {
	projects    repository.ProjectRepository
	files       repository.FileRepository
	annotations repository.AnnotationRepository
	store       storage.Storage
	log         *slog.Logger
	scratchDir  string
	archives    *prometheus.CounterVec
}

func New(
	projects repository.ProjectRepository,
	files repository.FileRepository,
	annotations repository.AnnotationRepository,
	store storage.Storage,
	log *slog.Logger,
	scratchDir string,
	reg prometheus.Registerer,
) (*Exporter, error) {
	archives, err := newArchivesCounter(reg)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		projects:    projects,
		files:       files,
		annotations: annotations,
		store:       store,
		log:         log,
		scratchDir:  scratchDir,
		archives:    archives,
	}, nil
}

// ExportProject renders the project in the requested format and returns the
// path of the finished ZIP archive in the scratch directory. The caller owns
// the file and is expected to remove it after streaming.
func (e *Exporter) ExportProject(ctx context.Context, projectID string, format model.ExportFormat, opts Options) (string, error) {
	path, err := e.exportProject(ctx, projectID, format, opts)

	status := "success"
	if err != nil {
		status = "failure"
	}
	e.archives.WithLabelValues(string(format), status).Inc()

	return path, err
}

func (e *Exporter) exportProject(ctx context.Context, projectID string, format model.ExportFormat, opts Options) (string, error) {
	var s strategy
	switch format {
	case model.ExportFormatCOCO:
		s = &cocoStrategy{e: e}
	case model.ExportFormatYOLO:
		s = &yoloStrategy{e: e, opts: opts}
	case model.ExportFormatClassification:
		s = &classificationStrategy{e: e}
	default:
		return "", fmt.Errorf("%w: %q", ErrFormatNotSupported, format)
	}

	project, err := e.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrProjectNotFound
		}
		return "", fmt.Errorf("resolve project: %w", err)
	}

	files, err := e.files.ListByProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	annotations, err := e.annotations.ListByProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("list annotations: %w", err)
	}

	return e.buildArchive(ctx, project, files, annotations, s)
}

// buildArchive creates the archive file, hands it to the strategy, and on any
// error removes the partial file before reporting the original failure.
func (e *Exporter) buildArchive(ctx context.Context, project *model.Project, files []model.FileMeta, annotations []model.Annotation, s strategy) (string, error) {
	if err := os.MkdirAll(e.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_%s.zip",
		project.ID,
		s.formatName(),
		time.Now().UTC().Format("20060102T150405"),
		uuid.New().String()[:8],
	)
	path := filepath.Join(e.scratchDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	if err := s.populate(ctx, project, files, annotations, zw); err != nil {
		zw.Close()
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			e.log.Warn("remove partial archive", "path", path, "error", rmErr)
		}
		return "", err
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close archive: %w", err)
	}

	return path, nil
}

// copyBlob streams a file's blob content from the store into an archive
// entry without buffering the whole file.
func (e *Exporter) copyBlob(ctx context.Context, meta *model.FileMeta, zw *zip.Writer, name string) error {
	rc, _, err := e.store.Get(ctx, meta.StoragePath)
	if err != nil {
		return fmt.Errorf("download %s: %w", meta.ID, err)
	}
	defer rc.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}

// archiveFilename names an embedded data file by its ID so entries stay
// unique even when users upload files with identical names.
func archiveFilename(meta *model.FileMeta) string {
	return meta.ID + filepath.Ext(meta.Filename)
}

func writeArchiveFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
