package extract

import (
	"context"

	"github.com/stockrx/importer/internal/entity"
)

// FileMeta describes an upload before its content is inspected.
type FileMeta struct {
	Filename     string
	DeclaredMIME string
	SizeBytes    int64
}

// ValidationResult is the outcome of the cheap structural pre-check.
type ValidationResult struct {
	OK      bool     `json:"ok"`
	Reasons []string `json:"reasons,omitempty"`
}

// Result is an ordered list of extracted line items. Truncated counts rows
// dropped by the per-document item limit; it is reported, never fatal.
type Result struct {
	Records   []entity.ExtractedRecord
	Truncated int
}

// DocumentExtractor converts raw document content into line items.
type DocumentExtractor interface {
	Extract(ctx context.Context, content []byte, meta FileMeta) (Result, error)
}

// VisionCaller is the narrow slice of the genai client the vision extractor
// depends on.
type VisionCaller interface {
	GenerateVision(ctx context.Context, model, prompt string, payload []byte, mimeType string) (string, error)
	VisionModel() string
}
