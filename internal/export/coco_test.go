package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"openlabel/internal/model"
)

func TestExportCOCO(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "birds")

	files := []model.FileMeta{
		imageFile("A", "a.png", 100, 100),
		imageFile("B", "b.png", 200, 200),
	}
	anns := []model.Annotation{
		odAnnotation("ann1", "A", "cat", model.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}),
	}
	f.stubData("p1", files, anns)
	f.stubBlob("files/A.png", []byte("image-a"))
	f.stubBlob("files/B.png", []byte("image-b"))

	path, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})
	assert.NoError(t, err)

	entries := readArchive(t, path)
	assert.Equal(t, []byte("image-a"), entries["A.png"])
	assert.Equal(t, []byte("image-b"), entries["B.png"])

	manifest := decodeManifest(t, entries["manifest.json"])

	assert.Len(t, manifest.Images, 2)
	assert.Equal(t, 0, manifest.Images[0].ID)
	assert.Equal(t, "A.png", manifest.Images[0].FileName)
	assert.Equal(t, 100, manifest.Images[0].Width)
	assert.Equal(t, 1, manifest.Images[1].ID)

	assert.Equal(t, []cocoCategory{{ID: 0, Name: "cat"}}, manifest.Categories)

	assert.Len(t, manifest.Annotations, 1)
	got := manifest.Annotations[0]
	assert.Equal(t, 0, got.ID)
	assert.Equal(t, 0, got.ImageID)
	assert.Equal(t, 0, got.CategoryID)
	// 20x20 pixel box anchored at (10,10), so center (20,20) and area 400.
	assert.Equal(t, [4]int{20, 20, 20, 20}, got.BBox)
	assert.Equal(t, 400.0, got.Area)
}

func TestExportCOCOCategoryIDsAreDense(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "birds")

	files := []model.FileMeta{imageFile("A", "a.png", 100, 100)}
	box := model.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	anns := []model.Annotation{
		odAnnotation("ann1", "A", "cat", box),
		odAnnotation("ann2", "A", "dog", box),
		odAnnotation("ann3", "A", "cat", box),
	}
	f.stubData("p1", files, anns)
	f.stubBlob("files/A.png", []byte("image-a"))

	path, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})
	assert.NoError(t, err)

	manifest := decodeManifest(t, readArchive(t, path)["manifest.json"])

	assert.Equal(t, []cocoCategory{{ID: 0, Name: "cat"}, {ID: 1, Name: "dog"}}, manifest.Categories)

	assert.Len(t, manifest.Annotations, 3)
	assert.Equal(t, 0, manifest.Annotations[0].CategoryID)
	assert.Equal(t, 1, manifest.Annotations[1].CategoryID)
	assert.Equal(t, 0, manifest.Annotations[2].CategoryID)
	// Annotation IDs keep counting independently of the category list.
	assert.Equal(t, 2, manifest.Annotations[2].ID)
}

func TestExportCOCOFailsOnClassificationAnnotation(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "birds")

	files := []model.FileMeta{imageFile("A", "a.png", 100, 100)}
	anns := []model.Annotation{classAnnotation("ann1", "A", "cat")}
	f.stubData("p1", files, anns)
	f.stubBlob("files/A.png", []byte("image-a"))

	_, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})

	assert.ErrorIs(t, err, ErrAnnotationNotSupported)
	assert.Empty(t, f.scratchEntries(t))
}

func TestExportCOCOSkipsAnnotationsOutsideImageSet(t *testing.T) {
	f := newExporterFixture(t)
	f.stubProject("p1", "mixed")

	// The text file never enters the image set, so its annotation is dropped
	// before the type check can reject it.
	files := []model.FileMeta{
		imageFile("A", "a.png", 100, 100),
		textFile("B", "notes.txt"),
	}
	anns := []model.Annotation{classAnnotation("ann1", "B", "spam")}
	f.stubData("p1", files, anns)
	f.stubBlob("files/A.png", []byte("image-a"))

	path, err := f.exporter.ExportProject(context.Background(), "p1", model.ExportFormatCOCO, Options{})
	assert.NoError(t, err)

	entries := readArchive(t, path)
	assert.NotContains(t, entries, "B.txt")

	manifest := decodeManifest(t, entries["manifest.json"])
	assert.Len(t, manifest.Images, 1)
	assert.Empty(t, manifest.Annotations)
	assert.Empty(t, manifest.Categories)
}
