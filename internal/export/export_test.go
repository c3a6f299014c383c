package export

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"openlabel/internal/model"
	"openlabel/internal/repository/mocks"
	"openlabel/internal/storage"
	storagemocks "openlabel/internal/storage/mocks"
)

type exporterFixture struct {
	exporter   *Exporter
	projects   *mocks.MockProjectRepository
	files      *mocks.MockFileRepository
	anns       *mocks.MockAnnotationRepository
	store      *storagemocks.MockStorage
	scratchDir string
}

func newExporterFixture(t *testing.T) *exporterFixture {
	t.Helper()

	f := &exporterFixture{
		projects:   new(mocks.MockProjectRepository),
		files:      new(mocks.MockFileRepository),
		anns:       new(mocks.MockAnnotationRepository),
		store:      new(storagemocks.MockStorage),
		scratchDir: t.TempDir(),
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter, err := New(f.projects, f.files, f.anns, f.store, log, f.scratchDir, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	f.exporter = exporter
	return f
}

func (f *exporterFixture) stubProject(id, name string) {
	f.projects.On("FindByID", mock.Anything, id).Return(&model.Project{ID: id, Name: name}, nil)
}

func (f *exporterFixture) stubData(projectID string, files []model.FileMeta, anns []model.Annotation) {
	f.files.On("ListByProject", mock.Anything, projectID).Return(files, nil)
	f.anns.On("ListByProject", mock.Anything, projectID).Return(anns, nil)
}

func (f *exporterFixture) stubBlob(key string, content []byte) {
	f.store.On("Get", mock.Anything, key).
		Return(io.NopCloser(bytes.NewReader(content)), storage.ObjectInfo{}, nil)
}

func (f *exporterFixture) scratchEntries(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.scratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	return entries
}

func imageFile(id, filename string, w, h int) model.FileMeta {
	return model.FileMeta{
		ID:          id,
		ProjectID:   "p1",
		Filename:    filename,
		ContentType: "image/png",
		Type:        model.DataTypeImage,
		Width:       w,
		Height:      h,
		Status:      model.FileStatusAnnotated,
		StoragePath: "files/" + id + ".png",
	}
}

func textFile(id, filename string) model.FileMeta {
	return model.FileMeta{
		ID:          id,
		ProjectID:   "p1",
		Filename:    filename,
		ContentType: "text/plain",
		Type:        model.DataTypeText,
		Status:      model.FileStatusAnnotated,
		StoragePath: "files/" + id + ".txt",
	}
}

func odAnnotation(id, fileID, label string, bbox model.BoundingBox) model.Annotation {
	return model.Annotation{
		ID:         id,
		FileID:     fileID,
		ProjectID:  "p1",
		Type:       model.AnnotationTypeObjectDetection,
		Label:      label,
		Confidence: 1.0,
		BBox:       &bbox,
	}
}

func classAnnotation(id, fileID, label string) model.Annotation {
	return model.Annotation{
		ID:         id,
		FileID:     fileID,
		ProjectID:  "p1",
		Type:       model.AnnotationTypeClassification,
		Label:      label,
		Confidence: 1.0,
	}
}

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	defer zr.Close()

	out := make(map[string][]byte, len(zr.File))
	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", entry.Name, err)
		}
		out[entry.Name] = data
	}
	return out
}

func decodeManifest(t *testing.T, data []byte) cocoManifest {
	t.Helper()
	var m cocoManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	return m
}

func TestExportProjectNotFound(t *testing.T) {
	f := newExporterFixture(t)
	f.projects.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := f.exporter.ExportProject(context.Background(), "missing", model.ExportFormatCOCO, Options{})

	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Empty(t, f.scratchEntries(t))
}

func TestExportUnknownFormat(t *testing.T) {
	f := newExporterFixture(t)

	_, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormat("PASCAL"), Options{})

	assert.ErrorIs(t, err, ErrFormatNotSupported)
	f.projects.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestExportRemovesPartialArchiveOnFailure(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "birds")
	f.stubData("p1", []model.FileMeta{imageFile("A", "a.png", 100, 100)}, nil)
	f.store.On("Get", mock.Anything, "files/A.png").
		Return(nil, storage.ObjectInfo{}, errors.New("connection reset"))

	_, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})

	assert.Error(t, err)
	assert.Empty(t, f.scratchEntries(t))
}

func TestExportEmptyProject(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "empty")
	f.stubData("p1", nil, nil)

	path, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})
	assert.NoError(t, err)

	entries := readArchive(t, path)
	assert.Len(t, entries, 1)

	manifest := decodeManifest(t, entries["manifest.json"])
	assert.Empty(t, manifest.Images)
	assert.Empty(t, manifest.Annotations)
	assert.Empty(t, manifest.Categories)
	assert.Equal(t, "OpenLabel export - empty", manifest.Info.Description)
	assert.Equal(t, "1.0", manifest.Info.Version)
}

func TestExportArchiveNameCarriesProjectAndFormat(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "birds")
	f.stubData("p1", nil, nil)

	path, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatClassification, Options{})
	assert.NoError(t, err)

	assert.Contains(t, path, "p1_classification_")
	assert.Contains(t, path, ".zip")
}
