package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

// TextGenerator is the narrow slice of the genai client the enricher
// depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	TextModel() string
}

// enrichmentPayload is the wire shape of the extraction-stage answer.
type enrichmentPayload struct {
	BatchID              string `json:"batch_id"`
	Name                 string `json:"name"`
	Category             string `json:"category"`
	Form                 string `json:"form"`
	QuantityPerPack      string `json:"quantity_per_pack"`
	CoverDisease         string `json:"cover_disease"`
	Symptoms             string `json:"symptoms"`
	SideEffects          string `json:"side_effects"`
	Instructions         string `json:"instructions"`
	LocalizedDescription string `json:"localized_description"`
}

// Enricher fills descriptive metadata for candidate-new records via a
// two-call chain: raw knowledge collection, then structured extraction.
//
// The whole batch is fail-fast: the first failing record aborts enrichment
// with an error naming that medicine. Partially enriched inventory (some
// new medicines with full metadata, others with blanks) is worse for the
// operator than an explicit failure naming what needs manual entry.
type Enricher struct {
	gen    TextGenerator
	pacer  Pacer
	schema map[string]any
	logger *slog.Logger
}

func NewEnricher(gen TextGenerator, pacer Pacer, logger *slog.Logger) *Enricher {
	if pacer == nil {
		pacer = NewFixedDelayPacer(time.Second)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		gen:    gen,
		pacer:  pacer,
		schema: BuildEnrichmentJSONSchema(),
		logger: logger,
	}
}

// Enrich processes newRecords sequentially, pacing between records.
// Returns either one EnrichedRecord per input or no records and an error.
func (e *Enricher) Enrich(ctx context.Context, newRecords []entity.ReconciledRecord) ([]entity.EnrichedRecord, error) {
	out := make([]entity.EnrichedRecord, 0, len(newRecords))

	for i, rec := range newRecords {
		if i > 0 {
			if err := e.pacer.Wait(ctx); err != nil {
				return nil, common.NewEnrichmentError(common.KindEnrichmentFailed,
					fmt.Sprintf("enrichment interrupted before %q", rec.Name), err)
			}
		}

		enriched, err := e.enrichOne(ctx, rec)
		if err != nil {
			kind := common.KindEnrichmentFailed
			if isRateLimited(err) {
				kind = common.KindRateLimited
			}
			e.logger.Error("enrich.record.failed",
				"medicine", rec.Name, "batch_id", rec.BatchID, "index", i, "error", err)
			return nil, common.NewEnrichmentError(kind,
				fmt.Sprintf("enrichment failed for %q; add it and the remaining %d item(s) manually",
					rec.Name, len(newRecords)-i-1), err)
		}
		out = append(out, enriched)
	}

	e.logger.Info("enrich.ok", "records", len(out))
	return out, nil
}

func (e *Enricher) enrichOne(ctx context.Context, rec entity.ReconciledRecord) (entity.EnrichedRecord, error) {
	start := time.Now()
	e.logger.Info("enrich.record.start", "medicine", rec.Name, "batch_id", rec.BatchID)

	// Stage 1: collect unstructured knowledge by name only.
	raw, err := e.gen.GenerateText(ctx, e.gen.TextModel(), buildCollectionPrompt(rec.Name))
	if err != nil {
		return entity.EnrichedRecord{}, fmt.Errorf("collection call: %w", err)
	}

	// Stage 2: convert to the fixed field set.
	structured, err := e.gen.GenerateText(ctx, e.gen.TextModel(),
		buildExtractionPrompt(rec.BatchID, rec.Name, raw))
	if err != nil {
		return entity.EnrichedRecord{}, fmt.Errorf("extraction call: %w", err)
	}

	payload, err := e.parseAndValidate(structured)
	if err != nil {
		return entity.EnrichedRecord{}, err
	}

	e.logger.Info("enrich.record.ok",
		"medicine", rec.Name,
		"category", payload.Category,
		"form", payload.Form,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	// Identifiers always come from the client side; the model's echo is
	// validated but never trusted as the source of truth.
	return entity.EnrichedRecord{
		ExtractedRecord: rec.ExtractedRecord,
		Enrichment: entity.Enrichment{
			Category:             payload.Category,
			Form:                 payload.Form,
			QuantityPerPack:      payload.QuantityPerPack,
			CoverDisease:         payload.CoverDisease,
			Symptoms:             payload.Symptoms,
			SideEffects:          payload.SideEffects,
			Instructions:         payload.Instructions,
			LocalizedDescription: payload.LocalizedDescription,
		},
	}, nil
}

func (e *Enricher) parseAndValidate(text string) (enrichmentPayload, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return enrichmentPayload{}, fmt.Errorf("no JSON object in extraction response")
	}
	doc := []byte(cleaned[start : end+1])

	if err := ValidateJSONAgainstSchema(e.schema, doc); err != nil {
		return enrichmentPayload{}, err
	}

	var payload enrichmentPayload
	if err := json.Unmarshal(doc, &payload); err != nil {
		return enrichmentPayload{}, fmt.Errorf("unmarshal enrichment: %w", err)
	}

	// Second gate behind the schema enum: never persist a vocabulary miss
	// even if the schema definition drifts.
	if !constants.IsCategory(payload.Category) {
		return enrichmentPayload{}, fmt.Errorf("category %q outside the allowed vocabulary", payload.Category)
	}
	if !constants.IsForm(payload.Form) {
		return enrichmentPayload{}, fmt.Errorf("form %q outside the allowed vocabulary", payload.Form)
	}
	return payload, nil
}

// isRateLimited matches HTTP 429 / quota-exhaustion patterns in provider
// error text.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "quota", "resource_exhausted", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
