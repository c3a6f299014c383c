package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"openlabel/internal/model"
	"openlabel/internal/repository/mocks"
)

func newAnnotationServiceFixture() (AnnotationService, *mocks.MockAnnotationRepository, *mocks.MockFileRepository) {
	anns := new(mocks.MockAnnotationRepository)
	files := new(mocks.MockFileRepository)
	return NewAnnotationService(anns, files), anns, files
}

func TestCreateObjectDetectionMarksFileAnnotated(t *testing.T) {
	svc, anns, files := newAnnotationServiceFixture()

	files.On("FindByID", mock.Anything, "f1").
		Return(&model.FileMeta{ID: "f1", ProjectID: "p1", Status: model.FileStatusUnannotated}, nil)

	var captured *model.Annotation
	anns.On("Create", mock.Anything, mock.AnythingOfType("*model.Annotation")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*model.Annotation)
		}).
		Return(&model.Annotation{ID: "stored"}, nil)
	files.On("UpdateStatus", mock.Anything, "f1", model.FileStatusAnnotated).Return(nil)

	bbox := model.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	got, err := svc.CreateObjectDetection(context.Background(), "f1", "u1", "cat", bbox)

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.NotNil(t, captured)
	assert.Equal(t, model.AnnotationTypeObjectDetection, captured.Type)
	assert.Equal(t, "p1", captured.ProjectID)
	assert.Equal(t, bbox, *captured.BBox)
	assert.Equal(t, 1.0, captured.Confidence)
	files.AssertExpectations(t)
}

func TestCreateClassificationSkipsStatusWhenAlreadyAnnotated(t *testing.T) {
	svc, anns, files := newAnnotationServiceFixture()

	files.On("FindByID", mock.Anything, "f1").
		Return(&model.FileMeta{ID: "f1", ProjectID: "p1", Status: model.FileStatusAnnotated}, nil)
	anns.On("Create", mock.Anything, mock.Anything).Return(&model.Annotation{ID: "a1"}, nil)

	_, err := svc.CreateClassification(context.Background(), "f1", "u1", "dog")

	assert.NoError(t, err)
	files.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateObjectDetectionInvalidBox(t *testing.T) {
	svc, anns, files := newAnnotationServiceFixture()

	files.On("FindByID", mock.Anything, "f1").
		Return(&model.FileMeta{ID: "f1", ProjectID: "p1"}, nil)

	_, err := svc.CreateObjectDetection(context.Background(), "f1", "u1", "cat",
		model.BoundingBox{X: 0.1, Y: 0.1, Width: 0, Height: 0.2})

	assert.Error(t, err)
	anns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAnnotationFileMissing(t *testing.T) {
	svc, _, files := newAnnotationServiceFixture()

	files.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.CreateClassification(context.Background(), "missing", "u1", "dog")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestUpdateTypeChangeClearsCoordinates(t *testing.T) {
	svc, anns, _ := newAnnotationServiceFixture()

	existing := &model.Annotation{
		ID:         "a1",
		FileID:     "f1",
		ProjectID:  "p1",
		Type:       model.AnnotationTypeObjectDetection,
		Label:      "cat",
		Confidence: 1.0,
		BBox:       &model.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2},
	}
	anns.On("FindByID", mock.Anything, "a1").Return(existing, nil)

	var captured *model.Annotation
	anns.On("Update", mock.Anything, mock.AnythingOfType("*model.Annotation")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*model.Annotation)
		}).
		Return(nil)

	typ := model.AnnotationTypeClassification
	got, err := svc.Update(context.Background(), "a1", AnnotationPatch{Type: &typ})

	assert.NoError(t, err)
	assert.Equal(t, model.AnnotationTypeClassification, got.Type)
	assert.Nil(t, captured.BBox)
	assert.Nil(t, captured.Points)
}

func TestUpdateTypeChangeWithoutNewPayloadFails(t *testing.T) {
	svc, anns, _ := newAnnotationServiceFixture()

	existing := &model.Annotation{
		ID:         "a1",
		FileID:     "f1",
		Type:       model.AnnotationTypeClassification,
		Label:      "dog",
		Confidence: 1.0,
	}
	anns.On("FindByID", mock.Anything, "a1").Return(existing, nil)

	typ := model.AnnotationTypeObjectDetection
	_, err := svc.Update(context.Background(), "a1", AnnotationPatch{Type: &typ})

	assert.Error(t, err)
	anns.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteLastAnnotationResetsFileStatus(t *testing.T) {
	svc, anns, files := newAnnotationServiceFixture()

	anns.On("FindByID", mock.Anything, "a1").
		Return(&model.Annotation{ID: "a1", FileID: "f1", Type: model.AnnotationTypeClassification, Label: "dog", Confidence: 1.0}, nil)
	anns.On("Delete", mock.Anything, "a1").Return(nil)
	anns.On("CountByFile", mock.Anything, "f1").Return(0, nil)
	files.On("UpdateStatus", mock.Anything, "f1", model.FileStatusUnannotated).Return(nil)

	err := svc.Delete(context.Background(), "a1")

	assert.NoError(t, err)
	files.AssertExpectations(t)
}

func TestDeleteWithRemainingAnnotationsKeepsFileStatus(t *testing.T) {
	svc, anns, files := newAnnotationServiceFixture()

	anns.On("FindByID", mock.Anything, "a1").
		Return(&model.Annotation{ID: "a1", FileID: "f1", Type: model.AnnotationTypeClassification, Label: "dog", Confidence: 1.0}, nil)
	anns.On("Delete", mock.Anything, "a1").Return(nil)
	anns.On("CountByFile", mock.Anything, "f1").Return(2, nil)

	err := svc.Delete(context.Background(), "a1")

	assert.NoError(t, err)
	files.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAnnotationNotFound(t *testing.T) {
	svc, anns, _ := newAnnotationServiceFixture()

	anns.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAnnotationNotFound)
}
