// Package domain holds the data model shared by every stage of the
// reconstruction job pipeline: the request a client submits, the result a
// worker produces, and the error taxonomy used to route failures back to
// HTTP status codes.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Algorithm selects the normal-equations variant used to invert the forward
// model.
type Algorithm string

const (
	AlgorithmCGNR Algorithm = "CGNR"
	AlgorithmCGNE Algorithm = "CGNE"
)

// ReconstructionRequest is the payload a client submits to /reconstruct.
type ReconstructionRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	AlgorithmID Algorithm `json:"algorithm_id"`
	ModelID     string    `json:"model_id"`
	G           []float64 `json:"g"`
}

// ImagePixels is the (height, width) shape of a reconstructed image.
type ImagePixels struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// ReconstructionResult is what the solver produces and what /reconstruct
// ultimately returns to the client.
type ReconstructionResult struct {
	UserID               uuid.UUID   `json:"user_id"`
	AlgorithmID          Algorithm   `json:"algorithm_id"`
	StartTime            time.Time   `json:"start_time"`
	EndTime              time.Time   `json:"end_time"`
	ReconstructionTimeMs int64       `json:"reconstruction_time_ms"`
	ImagePixels          ImagePixels `json:"image_pixels"`
	Iterations           int         `json:"iterations"`
	F                    []float64   `json:"f"`
}

// ReportEntry is one completed-job row appended to the report log.
type ReportEntry struct {
	Result        ReconstructionResult
	ImageFilename string
}

// JobOutcome is the explicit tagged result sent back over a job's one-shot
// reply channel. It resolves the "sentinel error result" open question from
// the spec's design notes: instead of inferring failure from a zero-valued
// ReconstructionResult, the dispatcher tags success/failure directly.
type JobOutcome struct {
	Result *ReconstructionResult
	Err    error
}

// ErrorKind classifies a DomainError for disposition at the HTTP boundary.
type ErrorKind int

const (
	ErrUnknownModel ErrorKind = iota
	ErrUnknownAlgorithm
	ErrQueueFull
	ErrModelParse
	ErrModelDimensionMismatch
	ErrModelExceedsCapacity
	ErrResponderDropped
	ErrInternalDispatcherFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownModel:
		return "UnknownModel"
	case ErrUnknownAlgorithm:
		return "UnknownAlgorithm"
	case ErrQueueFull:
		return "QueueFull"
	case ErrModelParse:
		return "ModelParseError"
	case ErrModelDimensionMismatch:
		return "ModelDimensionMismatch"
	case ErrModelExceedsCapacity:
		return "ModelExceedsCapacity"
	case ErrResponderDropped:
		return "ResponderDropped"
	case ErrInternalDispatcherFailure:
		return "InternalDispatcherFailure"
	default:
		return "Unknown"
	}
}

// DomainError wraps an underlying error with a classification the HTTP layer
// can map to a status code without string-matching.
type DomainError struct {
	Kind ErrorKind
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError constructs a DomainError of the given kind.
func NewDomainError(kind ErrorKind, err error) *DomainError {
	return &DomainError{Kind: kind, Err: err}
}
