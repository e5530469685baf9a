package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

const visionPrompt = `You are a vision OCR agent. Inspect the document carefully.

1) If this document is NOT a clear bill/receipt/invoice with a table of medicines/items, quantities, and prices, return exactly:
{"error": "INVALID_IMAGE", "reason": "why the document is not a valid medicine bill"}

2) If it IS a valid bill/receipt, extract ONLY the table rows and return a strict JSON array (no markdown, no extra text):
[
  {
    "batch_id": "text from Batch column; empty string if absent",
    "name": "item description text",
    "manufacturer": "manufacturer name if present, else empty string",
    "expiry": "expiry text (e.g. Sep-2026) if present, else empty string",
    "price": number (numeric Rate value, no currency symbols),
    "quantity": number (from the Qty column)
  }
]

Rules:
- Output ONLY JSON. Do not wrap in code fences or add explanations.
- "price" must be numeric (e.g. 43.00 -> 43, 225.30 -> 225.3). No currency symbols.
- "quantity" must be numeric from the Qty column.
- One object per table row, in top-to-bottom order.`

// visionRow is the wire shape the provider is prompted to return.
type visionRow struct {
	BatchID      string  `json:"batch_id"`
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Expiry       string  `json:"expiry"`
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
}

// VisionExtractor sends image/PDF bills to the external
// image-to-structured-data service and parses the response.
type VisionExtractor struct {
	caller   VisionCaller
	maxItems int
	enhance  bool
	logger   *slog.Logger
}

func NewVisionExtractor(caller VisionCaller, maxItems int, enhance bool, logger *slog.Logger) *VisionExtractor {
	if maxItems <= 0 {
		maxItems = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionExtractor{caller: caller, maxItems: maxItems, enhance: enhance, logger: logger}
}

func (v *VisionExtractor) Extract(ctx context.Context, content []byte, meta FileMeta) (Result, error) {
	format := constants.MapExtToFormat(filepath.Ext(meta.Filename))
	if !constants.IsVisionFormat(format) {
		return Result{}, common.NewExtractionError(common.KindUnsupportedFormat,
			fmt.Sprintf("vision extractor cannot handle %q", meta.Filename), nil)
	}

	payload := content
	mimeType := meta.DeclaredMIME
	if format == constants.FormatPDF {
		mimeType = "application/pdf"
	} else if v.enhance {
		if enhanced, err := enhanceForOCR(content); err == nil {
			payload = enhanced
			mimeType = "image/jpeg"
		} else {
			// keep the original payload; enhancement is best-effort
			v.logger.Warn("extract.vision.enhance_failed", "filename", meta.Filename, "error", err)
		}
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := v.caller.GenerateVision(ctx, v.caller.VisionModel(), visionPrompt, payload, mimeType)
	if err != nil {
		return Result{}, common.NewExtractionError(common.KindProviderError,
			"vision extraction call failed", err)
	}

	rows, invalidReason, err := parseVisionResponse(text)
	if err != nil {
		return Result{}, common.NewExtractionError(common.KindProviderError,
			"unparseable vision response", err)
	}
	if invalidReason != "" {
		return Result{}, common.NewExtractionError(common.KindInvalidContent,
			"document rejected by vision provider: "+invalidReason, nil)
	}
	if len(rows) == 0 {
		return Result{}, common.NewExtractionError(common.KindEmptyResult,
			"vision provider found no line items", nil)
	}

	records := make([]entity.ExtractedRecord, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" || r.Quantity <= 0 {
			continue
		}
		records = append(records, entity.ExtractedRecord{
			BatchID:      strings.TrimSpace(r.BatchID),
			Name:         name,
			Price:        decimal.NewFromFloat(r.Price),
			Quantity:     int(r.Quantity),
			Manufacturer: strings.TrimSpace(r.Manufacturer),
			ExpiryRaw:    strings.TrimSpace(r.Expiry),
		})
	}
	if len(records) == 0 {
		return Result{}, common.NewExtractionError(common.KindEmptyResult,
			"vision provider returned no usable rows", nil)
	}

	truncated := 0
	if len(records) > v.maxItems {
		truncated = len(records) - v.maxItems
		records = records[:v.maxItems]
	}

	v.logger.Info("extract.vision.ok",
		"filename", meta.Filename,
		"records", len(records),
		"truncated", truncated,
	)
	return Result{Records: records, Truncated: truncated}, nil
}

// parseVisionResponse handles the two legal provider answers: the
// INVALID_IMAGE sentinel object or a JSON array of rows, possibly wrapped
// in markdown fences.
func parseVisionResponse(text string) (rows []visionRow, invalidReason string, err error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	// Sentinel first: its reason text may itself contain brackets, so a
	// bare "[" is not enough to assume a row array.
	var sentinel struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if start := strings.Index(cleaned, "{"); start >= 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			if err := json.Unmarshal([]byte(cleaned[start:end+1]), &sentinel); err == nil &&
				sentinel.Error == "INVALID_IMAGE" {
				reason := sentinel.Reason
				if reason == "" {
					reason = "not a medicine bill"
				}
				return nil, reason, nil
			}
		}
	}

	if start := strings.Index(cleaned, "["); start >= 0 {
		if end := strings.LastIndex(cleaned, "]"); end > start {
			if err := json.Unmarshal([]byte(cleaned[start:end+1]), &rows); err != nil {
				return nil, "", fmt.Errorf("decode row array: %w", err)
			}
			return rows, "", nil
		}
	}

	return nil, "", fmt.Errorf("response is neither a row array nor a sentinel: %.120s", cleaned)
}

// enhanceForOCR applies the grayscale/contrast/sharpen pass that improves
// table legibility before the vision call.
func enhanceForOCR(content []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
