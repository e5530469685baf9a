package draft

import (
	"log/slog"

	"github.com/stockrx/importer/internal/entity"
)

// Gate assembles the reviewable draft and enforces the new-record
// admission cap. Existing records are never throttled: restocking a bill
// full of known batches must always go through.
type Gate struct {
	cap    int
	logger *slog.Logger
}

func NewGate(newRecordCap int, logger *slog.Logger) *Gate {
	if newRecordCap <= 0 {
		newRecordCap = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{cap: newRecordCap, logger: logger}
}

// Build merges the reconciled Existing records with the enriched New
// records into one draft, capping New admissions. Excluded records stay
// visible through ExcludedCount and ExcludedNames; the Summary reflects
// the pre-cap reconciliation so the caller sees the full picture.
func (g *Gate) Build(reconciled []entity.ReconciledRecord, enriched []entity.EnrichedRecord) entity.ImportDraft {
	var items []entity.DraftItem
	updated := 0
	for _, rec := range reconciled {
		if rec.Classification != entity.ClassExisting {
			continue
		}
		updated++
		items = append(items, entity.DraftItem{
			ExtractedRecord: rec.ExtractedRecord,
			Enrichment:      rec.Enrichment,
			Classification:  entity.ClassExisting,
		})
	}

	admitted := enriched
	var excludedNames []string
	if len(enriched) > g.cap {
		for _, rec := range enriched[g.cap:] {
			excludedNames = append(excludedNames, rec.Name)
		}
		admitted = enriched[:g.cap]
		g.logger.Warn("draft.cap_applied", "cap", g.cap, "excluded", len(excludedNames))
	}
	for _, rec := range admitted {
		items = append(items, entity.DraftItem{
			ExtractedRecord: rec.ExtractedRecord,
			Enrichment:      rec.Enrichment,
			Classification:  entity.ClassNew,
		})
	}

	return entity.ImportDraft{
		Items:         items,
		ExcludedCount: len(excludedNames),
		ExcludedNames: excludedNames,
		Summary: entity.Summary{
			Total:   len(reconciled),
			Updated: updated,
			New:     len(enriched),
		},
	}
}
