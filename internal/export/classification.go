package export

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"

	"openlabel/internal/model"
)

// classificationStrategy renders a project as class-named folders of data
// files: data/{label}/{filename}. Annotations of other types are skipped, so
// a mixed project exports only its classification subset.
type classificationStrategy struct {
	e *Exporter
}

func (s *classificationStrategy) formatName() string { return "classification" }

func (s *classificationStrategy) populate(ctx context.Context, project *model.Project, files []model.FileMeta, annotations []model.Annotation, zw *zip.Writer) error {
	byID := make(map[string]*model.FileMeta, len(files))
	for i := range files {
		byID[files[i].ID] = &files[i]
	}

	used := make(map[string]bool)

	for i := range annotations {
		ann := &annotations[i]
		if ann.Type != model.AnnotationTypeClassification {
			continue
		}

		meta, ok := byID[ann.FileID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrFileNotFound, ann.FileID)
		}

		// Uploads keep their user-supplied names, so two files in one class
		// can collide; the second entry gets the file ID prepended.
		entry := fmt.Sprintf("data/%s/%s", strings.TrimSpace(ann.Label), meta.Filename)
		if used[entry] {
			entry = fmt.Sprintf("data/%s/%s_%s", strings.TrimSpace(ann.Label), meta.ID, meta.Filename)
		}
		used[entry] = true

		if err := s.e.copyBlob(ctx, meta, zw, entry); err != nil {
			return err
		}
	}
	return nil
}
