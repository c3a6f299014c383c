package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"openlabel/internal/model"
)

// cocoStrategy renders object detection projects as a flat archive of image
// files plus a manifest.json in the COCO layout. Bounding boxes are emitted
// center anchored in absolute pixels, rounded to integers; areas stay
// unrounded.
type cocoStrategy struct {
	e *Exporter
}

type cocoManifest struct {
	Info        cocoInfo         `json:"info"`
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoInfo struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
}

type cocoImage struct {
	ID           int    `json:"id"`
	FileName     string `json:"file_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	DateCaptured string `json:"date_captured"`
}

type cocoAnnotation struct {
	ID         int     `json:"id"`
	ImageID    int     `json:"image_id"`
	CategoryID int     `json:"category_id"`
	Area       float64 `json:"area"`
	BBox       [4]int  `json:"bbox"`
}

type cocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (s *cocoStrategy) formatName() string { return "coco" }

func (s *cocoStrategy) populate(ctx context.Context, project *model.Project, files []model.FileMeta, annotations []model.Annotation, zw *zip.Writer) error {
	now := time.Now().UTC()
	manifest := cocoManifest{
		Info: cocoInfo{
			Year:        now.Year(),
			Version:     "1.0",
			Description: "OpenLabel export - " + project.Name,
			Contributor: "OpenLabel",
			DateCreated: now.Format(time.RFC3339),
		},
		Images:      []cocoImage{},
		Annotations: []cocoAnnotation{},
		Categories:  []cocoCategory{},
	}

	type imageEntry struct {
		meta    *model.FileMeta
		imageID int
	}
	imageMap := make(map[string]imageEntry)

	for i := range files {
		f := &files[i]
		if f.Type != model.DataTypeImage {
			s.e.log.Warn("skipping non-image file in COCO export", "file_id", f.ID, "type", f.Type)
			continue
		}

		imageID := len(imageMap)
		imageMap[f.ID] = imageEntry{meta: f, imageID: imageID}
		manifest.Images = append(manifest.Images, cocoImage{
			ID:           imageID,
			FileName:     archiveFilename(f),
			Width:        f.Width,
			Height:       f.Height,
			DateCaptured: f.CreatedAt.Format(time.RFC3339),
		})

		if err := s.e.copyBlob(ctx, f, zw, archiveFilename(f)); err != nil {
			return err
		}
	}

	// Category IDs are dense from zero in label first-seen order, counted
	// independently of annotation IDs.
	categoryIDs := make(map[string]int)
	annID := 0

	for i := range annotations {
		ann := &annotations[i]
		entry, ok := imageMap[ann.FileID]
		if !ok {
			s.e.log.Warn("skipping annotation for file outside image set", "annotation_id", ann.ID, "file_id", ann.FileID)
			continue
		}

		if ann.Type != model.AnnotationTypeObjectDetection {
			return fmt.Errorf("%w: COCO cannot encode %s", ErrAnnotationNotSupported, ann.Type)
		}

		categoryID, ok := categoryIDs[ann.Label]
		if !ok {
			categoryID = len(categoryIDs)
			categoryIDs[ann.Label] = categoryID
			manifest.Categories = append(manifest.Categories, cocoCategory{ID: categoryID, Name: ann.Label})
		}

		abs, err := ann.BBox.ToAbsolute(entry.meta.Width, entry.meta.Height)
		if err != nil {
			return fmt.Errorf("annotation %s: %w", ann.ID, err)
		}
		center := abs.TopLeftToCenter()

		manifest.Annotations = append(manifest.Annotations, cocoAnnotation{
			ID:         annID,
			ImageID:    entry.imageID,
			CategoryID: categoryID,
			Area:       abs.Area(),
			BBox: [4]int{
				int(math.Round(center.X)),
				int(math.Round(center.Y)),
				int(math.Round(center.Width)),
				int(math.Round(center.Height)),
			},
		})
		annID++
	}

	w, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}
