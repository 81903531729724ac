package quotedoc

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by Pipeline.Render matches exactly
// one of them with errors.Is.
var (
	ErrValidation   = errors.New("quotation request is invalid")
	ErrAssetMissing = errors.New("letterhead asset is unavailable")
	ErrComposition  = errors.New("quotation document could not be composed")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageLayout     Stage = "layout"
	StageLetterhead Stage = "letterhead"
	StageCompose    Stage = "compose"
)

// Error is the single error type Render returns. It wraps both the category
// and the underlying cause.
type Error struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render quotation (%s): %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func fail(stage Stage, kind, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Err: err}
}

// FieldError describes one malformed request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidRequestError lists every malformed field of a request.
type InvalidRequestError struct {
	Fields []FieldError
}

func (e *InvalidRequestError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return strings.Join(parts, "; ")
}
