package domain

import "errors"

var (
	ErrValidation        = errors.New("submission rejected")
	ErrPollTimeout       = errors.New("polling timed out")
	ErrMissingJobID      = errors.New("missing job id")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoFiles           = errors.New("no files to upload")
)
