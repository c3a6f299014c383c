package handler

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"openlabel/internal/export"
	"openlabel/internal/model"
	"openlabel/internal/repository"
	"openlabel/internal/service"
)

// ProjectExporter is the slice of the export package the routes need.
type ProjectExporter interface {
	ExportProject(ctx context.Context, projectID string, format model.ExportFormat, opts export.Options) (string, error)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type createProjectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CreatedBy      string   `json:"created_by"`
	DataType       string   `json:"data_type"`
	AnnotationType string   `json:"annotation_type"`
	IsPublic       bool     `json:"is_public"`
	Labels         []string `json:"labels"`
}

type updateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	IsPublic    *bool    `json:"is_public"`
	Labels      []string `json:"labels"`
}

type createAnnotationRequest struct {
	Type      string             `json:"type"`
	CreatedBy string             `json:"created_by"`
	Label     string             `json:"label"`
	BBox      *model.BoundingBox `json:"bbox"`
	Points    model.Polygon      `json:"points"`
}

type updateAnnotationRequest struct {
	Type       *string            `json:"type"`
	Label      *string            `json:"label"`
	Confidence *float64           `json:"confidence"`
	BBox       *model.BoundingBox `json:"bbox"`
	Points     model.Polygon      `json:"points"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal: parse, delegate, translate errors.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	userSvc service.UserService,
	projectSvc service.ProjectService,
	fileSvc service.FileService,
	annotationSvc service.AnnotationService,
	exporter ProjectExporter,
	defaultValidationRatio float64,
) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	registerUserRoutes(app, userSvc)
	registerProjectRoutes(app, projectSvc, fileSvc, annotationSvc, exporter, defaultValidationRatio)
	registerFileRoutes(app, fileSvc, annotationSvc)
	registerAnnotationRoutes(app, annotationSvc)
}

func registerUserRoutes(app *fiber.App, userSvc service.UserService) {
	app.Post("/users", func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		user, err := userSvc.Create(c.UserContext(), req.Username, req.Email)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	app.Get("/users/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		user, err := userSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(user)
	})
}

func registerProjectRoutes(
	app *fiber.App,
	projectSvc service.ProjectService,
	fileSvc service.FileService,
	annotationSvc service.AnnotationService,
	exporter ProjectExporter,
	defaultValidationRatio float64,
) {
	app.Post("/projects", func(c *fiber.Ctx) error {
		var req createProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		project, err := projectSvc.Create(c.UserContext(), service.CreateProjectInput{
			Name:           req.Name,
			Description:    req.Description,
			CreatedBy:      req.CreatedBy,
			DataType:       model.DataType(req.DataType),
			AnnotationType: model.AnnotationType(req.AnnotationType),
			IsPublic:       req.IsPublic,
			Labels:         req.Labels,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(project)
	})

	// List projects the given user is a member of, with limit & offset
	app.Get("/projects", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return writeError(c, fiber.StatusBadRequest, "USER_ID_REQUIRED", "user_id query parameter is required")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := projectSvc.ListByMember(c.UserContext(), userID, repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	app.Get("/projects/:id", func(c *fiber.Ctx) error {
		project, err := projectSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(project)
	})

	app.Patch("/projects/:id", func(c *fiber.Ctx) error {
		var req updateProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		project, err := projectSvc.Update(c.UserContext(), c.Params("id"), service.ProjectPatch{
			Name:        req.Name,
			Description: req.Description,
			IsPublic:    req.IsPublic,
			Labels:      req.Labels,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(project)
	})

	app.Delete("/projects/:id", func(c *fiber.Ctx) error {
		if err := projectSvc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Upload a data file into the project (multipart/form-data, field name: file)
	app.Post("/projects/:id/files", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		createdBy := c.FormValue("created_by")
		if createdBy == "" {
			return writeError(c, fiber.StatusBadRequest, "CREATOR_REQUIRED", "created_by is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		meta, err := fileSvc.Upload(c.UserContext(), f, c.Params("id"), createdBy, fh.Filename, ct)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(meta)
	})

	app.Get("/projects/:id/files", func(c *fiber.Ctx) error {
		files, err := fileSvc.ListByProject(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(files)
	})

	app.Get("/projects/:id/annotations", func(c *fiber.Ctx) error {
		anns, err := annotationSvc.ListByProject(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(anns)
	})

	registerExportRoute(app, projectSvc, exporter, defaultValidationRatio)
}

// registerExportRoute wires the dataset export endpoint. The finished archive
// is streamed to the client and removed from scratch space once the response
// body is closed.
func registerExportRoute(app *fiber.App, projectSvc service.ProjectService, exporter ProjectExporter, defaultValidationRatio float64) {
	app.Get("/projects/:id/export", func(c *fiber.Ctx) error {
		projectID := c.Params("id")

		format, err := resolveFormat(c, projectSvc, projectID)
		if err != nil {
			return writeServiceError(c, err)
		}

		opts := export.Options{ValidationRatio: defaultValidationRatio}
		if raw := c.Query("validation_ratio"); raw != "" {
			ratio, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_RATIO", "invalid validation_ratio")
			}
			opts.ValidationRatio = ratio
		}

		path, err := exporter.ExportProject(c.UserContext(), projectID, format, opts)
		if err != nil {
			return writeServiceError(c, err)
		}

		archive, err := os.Open(path)
		if err != nil {
			os.Remove(path)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filepath.Base(path)+`"`)
		// fasthttp closes the stream after the response is written, which
		// triggers the scratch file cleanup.
		return c.SendStream(&removeOnClose{File: archive, path: path})
	})
}

// resolveFormat reads the format query parameter, falling back to the natural
// format of the project's data type when the parameter is absent.
func resolveFormat(c *fiber.Ctx, projectSvc service.ProjectService, projectID string) (model.ExportFormat, error) {
	if raw := c.Query("format"); raw != "" {
		return model.ParseExportFormat(raw)
	}

	project, err := projectSvc.Get(c.UserContext(), projectID)
	if err != nil {
		return "", err
	}
	switch project.Settings.DataType {
	case model.DataTypeImage:
		return model.ExportFormatCOCO, nil
	case model.DataTypeText:
		return model.ExportFormatClassification, nil
	default:
		return "", export.ErrFormatNotSupported
	}
}

type removeOnClose struct {
	*os.File
	path string
}

func (r *removeOnClose) Close() error {
	err := r.File.Close()
	os.Remove(r.path)
	return err
}

func registerFileRoutes(app *fiber.App, fileSvc service.FileService, annotationSvc service.AnnotationService) {
	app.Get("/files/:id", func(c *fiber.Ctx) error {
		meta, err := fileSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(meta)
	})

	app.Get("/files/:id/content", func(c *fiber.Ctx) error {
		rc, meta, err := fileSvc.Download(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, meta.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+meta.Filename+`"`)
		return c.SendStream(rc)
	})

	app.Get("/files/:id/presign", func(c *fiber.Ctx) error {
		expiry := 15 * time.Minute
		if raw := c.Query("expiry_seconds"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRY", "invalid expiry_seconds")
			}
			expiry = time.Duration(secs) * time.Second
		}
		url, err := fileSvc.PresignDownload(c.UserContext(), c.Params("id"), expiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	})

	app.Delete("/files/:id", func(c *fiber.Ctx) error {
		if err := fileSvc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/files/:id/annotations", func(c *fiber.Ctx) error {
		anns, err := annotationSvc.ListByFile(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(anns)
	})

	app.Post("/files/:id/annotations", func(c *fiber.Ctx) error {
		var req createAnnotationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		fileID := c.Params("id")

		var (
			ann *model.Annotation
			err error
		)
		switch model.AnnotationType(req.Type) {
		case model.AnnotationTypeClassification:
			ann, err = annotationSvc.CreateClassification(c.UserContext(), fileID, req.CreatedBy, req.Label)
		case model.AnnotationTypeObjectDetection:
			if req.BBox == nil {
				return writeError(c, fiber.StatusBadRequest, "BBOX_REQUIRED", "object detection requires a bbox")
			}
			ann, err = annotationSvc.CreateObjectDetection(c.UserContext(), fileID, req.CreatedBy, req.Label, *req.BBox)
		case model.AnnotationTypeSegmentation:
			ann, err = annotationSvc.CreateSegmentation(c.UserContext(), fileID, req.CreatedBy, req.Label, req.Points)
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown annotation type")
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ann)
	})
}

func registerAnnotationRoutes(app *fiber.App, annotationSvc service.AnnotationService) {
	app.Get("/annotations/:id", func(c *fiber.Ctx) error {
		ann, err := annotationSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ann)
	})

	app.Patch("/annotations/:id", func(c *fiber.Ctx) error {
		var req updateAnnotationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		patch := service.AnnotationPatch{
			Label:      req.Label,
			Confidence: req.Confidence,
			BBox:       req.BBox,
			Points:     req.Points,
		}
		if req.Type != nil {
			typ := model.AnnotationType(*req.Type)
			patch.Type = &typ
		}

		ann, err := annotationSvc.Update(c.UserContext(), c.Params("id"), patch)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ann)
	})

	app.Delete("/annotations/:id", func(c *fiber.Ctx) error {
		if err := annotationSvc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
