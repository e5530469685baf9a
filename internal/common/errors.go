package common

import (
	"errors"
	"fmt"
)

// Stage tags a failure with the pipeline stage that produced it, so callers
// can show stage-specific remediation text.
type Stage string

const (
	StageValidation Stage = "validation"
	StageExtraction Stage = "extraction"
	StageEnrichment Stage = "enrichment"
	StageCommit     Stage = "commit"
	StageRollback   Stage = "rollback"
)

// Kind is the machine-readable failure class within a stage.
type Kind string

const (
	KindValidationFailed        Kind = "VALIDATION_FAILED"
	KindUnsupportedFormat       Kind = "UNSUPPORTED_FORMAT"
	KindEmptyResult             Kind = "EMPTY_RESULT"
	KindInvalidContent          Kind = "INVALID_CONTENT"
	KindProviderError           Kind = "PROVIDER_ERROR"
	KindRateLimited             Kind = "RATE_LIMITED"
	KindEnrichmentFailed        Kind = "ENRICHMENT_FAILED"
	KindCommitFailed            Kind = "COMMIT_FAILED"
	KindRollbackNotFound        Kind = "ROLLBACK_NOT_FOUND"
	KindRollbackAlreadyConsumed Kind = "ROLLBACK_ALREADY_CONSUMED"
)

// PipelineError is the application error type carried across stage
// boundaries.
type PipelineError struct {
	Stage   Stage
	Kind    Kind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Stage, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Stage, e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError builds a stage-tagged error.
func NewPipelineError(stage Stage, kind Kind, message string, cause error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: kind, Message: message, Cause: cause}
}

func NewValidationError(message string) *PipelineError {
	return NewPipelineError(StageValidation, KindValidationFailed, message, nil)
}

func NewExtractionError(kind Kind, message string, cause error) *PipelineError {
	return NewPipelineError(StageExtraction, kind, message, cause)
}

func NewEnrichmentError(kind Kind, message string, cause error) *PipelineError {
	return NewPipelineError(StageEnrichment, kind, message, cause)
}

func NewCommitError(message string, cause error) *PipelineError {
	return NewPipelineError(StageCommit, KindCommitFailed, message, cause)
}

func NewRollbackError(kind Kind, message string) *PipelineError {
	return NewPipelineError(StageRollback, kind, message, nil)
}

// KindOf extracts the failure kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// StageOf extracts the stage tag, or "" for foreign errors.
func StageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
