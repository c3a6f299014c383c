package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package model contains pure domain models shared across layers (HTTP,
// service, repository, export). No database-specific dependencies or tags.

// DataType is the kind of data a file holds, derived from its MIME type.
type DataType string

const (
	DataTypeText  DataType = "text"
	DataTypeImage DataType = "image"
	DataTypeVideo DataType = "video"
)

// ErrUnsupportedMIME is returned by DataTypeFromMIME for content types the
// platform does not accept.
var ErrUnsupportedMIME = errors.New("unsupported content type")

// DataTypeFromMIME maps a MIME content type to a DataType.
func DataTypeFromMIME(contentType string) (DataType, error) {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return DataTypeImage, nil
	case strings.HasPrefix(mime, "text/"):
		return DataTypeText, nil
	case strings.HasPrefix(mime, "video/"):
		return DataTypeVideo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMIME, contentType)
	}
}

// FileStatus tracks whether a file has at least one annotation.
type FileStatus string

const (
	FileStatusAnnotated   FileStatus = "annotated"
	FileStatusUnannotated FileStatus = "unannotated"
)

// AnnotationType discriminates the annotation variants.
type AnnotationType string

const (
	AnnotationTypeClassification  AnnotationType = "classification"
	AnnotationTypeObjectDetection AnnotationType = "object_detection"
	AnnotationTypeSegmentation    AnnotationType = "segmentation"
)

// ExportFormat identifies a dataset export format.
type ExportFormat string

const (
	ExportFormatCOCO           ExportFormat = "COCO"
	ExportFormatYOLO           ExportFormat = "YOLO"
	ExportFormatClassification ExportFormat = "classification"
)

// ErrUnknownExportFormat is returned by ParseExportFormat for formats the
// platform does not recognize.
var ErrUnknownExportFormat = errors.New("unknown export format")

// ParseExportFormat parses a case-insensitive export format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coco":
		return ExportFormatCOCO, nil
	case "yolo":
		return ExportFormatYOLO, nil
	case "classification":
		return ExportFormatClassification, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownExportFormat, s)
	}
}

// User is a minimal account record. It exists so uploads and annotations can
// enforce creator-existence checks; authentication is handled outside this
// service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectMember associates a user with a project.
type ProjectMember struct {
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ProjectSettings configures what a project annotates and how.
type ProjectSettings struct {
	DataType       DataType       `json:"data_type"`
	AnnotationType AnnotationType `json:"annotation_type"`
	IsPublic       bool           `json:"is_public"`
	Labels         []string       `json:"labels"`
}

// Project aggregates files and annotations under shared settings. It is the
// unit of export.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	Members     []ProjectMember `json:"members"`
	Settings    ProjectSettings `json:"settings"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FileMeta describes one uploaded data unit. Width and Height are populated
// for images only. The binary content itself lives in object storage at
// StoragePath.
type FileMeta struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	CreatedBy   string     `json:"created_by"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Type        DataType   `json:"type"`
	Size        int64      `json:"size"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Status      FileStatus `json:"status"`
	StoragePath string     `json:"storage_path"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Annotation is a label attached to exactly one file. The coordinate payload
// must match Type: classification carries neither BBox nor Points, object
// detection carries BBox only, segmentation carries Points only.
type Annotation struct {
	ID         string         `json:"id"`
	FileID     string         `json:"file_id"`
	ProjectID  string         `json:"project_id"`
	CreatedBy  string         `json:"created_by"`
	Type       AnnotationType `json:"type"`
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	BBox       *BoundingBox   `json:"bbox,omitempty"`
	Points     Polygon        `json:"points,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ErrInvalidAnnotation wraps every Validate failure so callers can map the
// whole family of violations at once.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// Validate checks the type/payload invariant and the confidence range.
func (a *Annotation) Validate() error {
	if a.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidAnnotation)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidAnnotation, a.Confidence)
	}
	switch a.Type {
	case AnnotationTypeClassification:
		if a.BBox != nil || a.Points != nil {
			return fmt.Errorf("%w: classification must not carry coordinates", ErrInvalidAnnotation)
		}
	case AnnotationTypeObjectDetection:
		if a.BBox == nil {
			return fmt.Errorf("%w: object detection requires a bounding box", ErrInvalidAnnotation)
		}
		if a.Points != nil {
			return fmt.Errorf("%w: object detection must not carry polygon points", ErrInvalidAnnotation)
		}
		if err := a.BBox.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnnotation, err)
		}
	case AnnotationTypeSegmentation:
		if a.Points == nil {
			return fmt.Errorf("%w: segmentation requires polygon points", ErrInvalidAnnotation)
		}
		if a.BBox != nil {
			return fmt.Errorf("%w: segmentation must not carry a bounding box", ErrInvalidAnnotation)
		}
		if err := a.Points.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnnotation, err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAnnotation, a.Type)
	}
	return nil
}
