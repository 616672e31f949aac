package apperrors

import "errors"

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptySQL      = errors.New("sql is required")
)
