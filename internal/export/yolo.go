package export

import (
	"archive/zip"
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gopkg.in/yaml.v3"

	"openlabel/internal/model"
)

// yoloStrategy renders object detection projects in the Ultralytics dataset
// layout: images/{train,val}/ with one labels/{train,val}/{fileID}.txt per
// image and a data.yaml manifest. Bounding boxes are already stored
// normalized and top anchored the way YOLO labels expect, so lines carry the
// stored values verbatim.
type yoloStrategy struct {
	e    *Exporter
	opts Options
}

type yoloManifest struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

func (s *yoloStrategy) formatName() string { return "yolo" }

func (s *yoloStrategy) populate(ctx context.Context, project *model.Project, files []model.FileMeta, annotations []model.Annotation, zw *zip.Writer) error {
	ratio := s.opts.ValidationRatio
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return fmt.Errorf("%w: validation ratio %v not in [0, 1]", ErrInvalidOptions, ratio)
	}

	subdirs, err := s.writeImages(ctx, files, ratio, zw)
	if err != nil {
		return err
	}

	lines, names := s.collectLabels(annotations)

	for fileID, fileLines := range lines {
		subdir, ok := subdirs[fileID]
		if !ok {
			s.e.log.Warn("skipping labels for file outside image set", "file_id", fileID)
			continue
		}
		entry := fmt.Sprintf("labels/%s/%s.txt", subdir, fileID)
		if err := writeArchiveFile(zw, entry, []byte(strings.Join(fileLines, "\n"))); err != nil {
			return err
		}
	}

	manifest := yoloManifest{Path: ".", Train: "images/train", Val: "images/val", Names: names}
	out, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode data.yaml: %w", err)
	}
	return writeArchiveFile(zw, "data.yaml", out)
}

// writeImages shuffles the file list, carves off ceil(ratio*n) entries as the
// validation split, and embeds each image under its split directory. The
// returned map records which split each embedded image landed in.
func (s *yoloStrategy) writeImages(ctx context.Context, files []model.FileMeta, ratio float64, zw *zip.Writer) (map[string]string, error) {
	shuffled := make([]model.FileMeta, len(files))
	copy(shuffled, files)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	valCount := int(math.Ceil(ratio * float64(len(shuffled))))

	subdirs := make(map[string]string)
	for i := range shuffled {
		f := &shuffled[i]
		subdir := "train"
		if i < valCount {
			subdir = "val"
		}

		if f.Type != model.DataTypeImage {
			s.e.log.Warn("skipping non-image file in YOLO export", "file_id", f.ID, "type", f.Type)
			continue
		}
		subdirs[f.ID] = subdir

		entry := fmt.Sprintf("images/%s/%s", subdir, archiveFilename(f))
		if err := s.e.copyBlob(ctx, f, zw, entry); err != nil {
			return nil, err
		}
	}
	return subdirs, nil
}

// collectLabels formats object detection annotations as YOLO label lines
// grouped by file. Class indexes are assigned in label first-seen order
// across every annotation, so the class list is stable regardless of which
// annotations end up exportable.
func (s *yoloStrategy) collectLabels(annotations []model.Annotation) (map[string][]string, map[int]string) {
	classIndex := make(map[string]int)
	lines := make(map[string][]string)

	for i := range annotations {
		ann := &annotations[i]

		idx, ok := classIndex[ann.Label]
		if !ok {
			idx = len(classIndex)
			classIndex[ann.Label] = idx
		}

		if ann.Type != model.AnnotationTypeObjectDetection {
			s.e.log.Warn("skipping annotation in YOLO export", "annotation_id", ann.ID, "type", ann.Type)
			continue
		}

		line := fmt.Sprintf("%d %v %v %v %v", idx, ann.BBox.X, ann.BBox.Y, ann.BBox.Width, ann.BBox.Height)
		lines[ann.FileID] = append(lines[ann.FileID], line)
	}

	names := make(map[int]string, len(classIndex))
	for label, idx := range classIndex {
		names[idx] = label
	}
	return lines, names
}
