package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/stockrx/importer/constants"
)

// Validator performs cheap structural checks on an upload before any
// expensive work. Deep content validation (image quality, table structure)
// is deliberately deferred to the extractors, which fail with more specific
// errors; an imperfect pre-check must not block legitimate bills.
type Validator struct {
	maxBytes int64
	logger   *slog.Logger
}

func NewValidator(maxBytes int64, logger *slog.Logger) *Validator {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{maxBytes: maxBytes, logger: logger}
}

// Validate checks declared size and type against the allow-list.
func (v *Validator) Validate(meta FileMeta) ValidationResult {
	var reasons []string

	if meta.SizeBytes <= 0 {
		reasons = append(reasons, "file is empty")
	} else if meta.SizeBytes > v.maxBytes {
		reasons = append(reasons, fmt.Sprintf("file is %d bytes, limit is %d", meta.SizeBytes, v.maxBytes))
	}

	ext := constants.NormalizeExt(filepath.Ext(meta.Filename))
	if constants.MapExtToFormat(ext) == "" {
		reasons = append(reasons, fmt.Sprintf("unsupported file type %q; accepted: image, PDF, XLSX, CSV", ext))
	}

	res := ValidationResult{OK: len(reasons) == 0, Reasons: reasons}
	if !res.OK {
		v.logger.Info("validate.rejected", "filename", meta.Filename, "reasons", reasons)
	}
	return res
}
