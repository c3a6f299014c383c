package service

import "errors"

// Package service contains the use-case layer: orchestration between the
// metadata repositories and the blob store. Handlers translate these
// sentinel errors to HTTP statuses.

var (
	ErrIDRequired          = errors.New("id is required")
	ErrReaderNil           = errors.New("reader is nil")
	ErrUserNotFound        = errors.New("user not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrFileNotFound        = errors.New("file not found")
	ErrAnnotationNotFound  = errors.New("annotation not found")
	ErrProjectNameExists   = errors.New("project name already exists for this user")
	ErrVideoNotImplemented = errors.New("video files have not been implemented yet")
	ErrInvalidImage        = errors.New("could not process image")
)
