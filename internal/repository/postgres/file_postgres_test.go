package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"openlabel/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var fileCols = []string{"id", "project_id", "created_by", "filename", "content_type", "data_type", "size", "width", "height", "status", "storage_path", "created_at"}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	f := &model.FileMeta{
		ID:          "file-uuid",
		ProjectID:   "project-uuid",
		CreatedBy:   "user-uuid",
		Filename:    "cat.png",
		ContentType: "image/png",
		Type:        model.DataTypeImage,
		Size:        1234,
		Width:       100,
		Height:      100,
		Status:      model.FileStatusUnannotated,
		StoragePath: "files/file-uuid.png",
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(fileCols).
		AddRow(f.ID, f.ProjectID, f.CreatedBy, f.Filename, f.ContentType, f.Type, f.Size, f.Width, f.Height, f.Status, f.StoragePath, f.CreatedAt)

	mock.ExpectQuery("INSERT INTO files").
		WithArgs(f.ID, f.ProjectID, f.CreatedBy, f.Filename, f.ContentType, f.Type, f.Size,
			sql.NullInt64{Int64: 100, Valid: true}, sql.NullInt64{Int64: 100, Valid: true},
			f.Status, f.StoragePath, f.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, f)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, f.ID, result.ID)
	assert.Equal(t, 100, result.Width)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found with null dimensions", func(t *testing.T) {
		rows := sqlmock.NewRows(fileCols).
			AddRow("file-id", "project-id", "user-id", "notes.txt", "text/plain", model.DataTypeText, 10, nil, nil, model.FileStatusUnannotated, "files/file-id.txt", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("file-id").
			WillReturnRows(rows)

		f, err := repo.FindByID(ctx, "file-id")

		assert.NoError(t, err)
		assert.NotNil(t, f)
		assert.Equal(t, "file-id", f.ID)
		assert.Zero(t, f.Width)
		assert.Zero(t, f.Height)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByID(ctx, "missing")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, f)
	})
}

func TestFilePostgres_ListByProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows(fileCols).
		AddRow("a", "p", "u", "a.png", "image/png", model.DataTypeImage, 1, 100, 100, model.FileStatusAnnotated, "files/a.png", time.Now()).
		AddRow("b", "p", "u", "b.png", "image/png", model.DataTypeImage, 2, 200, 200, model.FileStatusUnannotated, "files/b.png", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM files WHERE project_id = ?").
		WithArgs("p").
		WillReturnRows(rows)

	files, err := repo.ListByProject(ctx, "p")

	assert.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, "a", files[0].ID)
	assert.Equal(t, 200, files[1].Width)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE files SET status = ?").
			WithArgs("file-id", model.FileStatusAnnotated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateStatus(ctx, "file-id", model.FileStatusAnnotated))
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE files SET status = ?").
			WithArgs("missing", model.FileStatusAnnotated).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, "missing", model.FileStatusAnnotated)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM files WHERE id = ?").
		WithArgs("file-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "file-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
