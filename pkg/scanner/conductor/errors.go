package conductor

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidContent matches every ContentError.
	ErrInvalidContent = errors.New("invalid content")
	// ErrAnalysisFailed matches every AnalysisError.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// ContentError rejects a document before any stage runs.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("invalid content: %s", e.Reason)
}

func (e *ContentError) Is(target error) bool {
	return target == ErrInvalidContent
}

// StatusCode maps the error for a service layer.
func (e *ContentError) StatusCode() int {
	return http.StatusBadRequest
}

// AnalysisError is an unexpected fault outside the recoverable stages.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed at %s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

func (e *AnalysisError) StatusCode() int {
	return http.StatusInternalServerError
}

// IsContentError reports whether err is, or wraps, a ContentError.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}

// panicError turns a recovered value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
