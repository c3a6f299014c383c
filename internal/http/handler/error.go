package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"openlabel/internal/export"
	"openlabel/internal/http/middleware"
	"openlabel/internal/model"
	"openlabel/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates known service and export errors into HTTP
// responses; anything unrecognized becomes a 500 with no internal details.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, export.ErrProjectNotFound):
		return writeError(c, fiber.StatusNotFound, "PROJECT_NOT_FOUND", "project not found")
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, export.ErrFileNotFound):
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrAnnotationNotFound):
		return writeError(c, fiber.StatusNotFound, "ANNOTATION_NOT_FOUND", "annotation not found")
	case errors.Is(err, service.ErrProjectNameExists):
		return writeError(c, fiber.StatusConflict, "PROJECT_NAME_EXISTS", "project name already in use")
	case errors.Is(err, service.ErrVideoNotImplemented):
		return writeError(c, fiber.StatusNotImplemented, "NOT_IMPLEMENTED", "video files are not supported yet")
	case errors.Is(err, export.ErrFormatNotSupported), errors.Is(err, export.ErrAnnotationNotSupported):
		return writeError(c, fiber.StatusNotImplemented, "NOT_IMPLEMENTED", "export not supported for this data")
	case errors.Is(err, export.ErrInvalidOptions),
		errors.Is(err, model.ErrUnknownExportFormat),
		errors.Is(err, model.ErrUnsupportedMIME),
		errors.Is(err, model.ErrInvalidAnnotation),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrProjectNameRequired),
		errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
