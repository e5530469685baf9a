package reconcile

import (
	"log/slog"

	"github.com/stockrx/importer/internal/entity"
)

// InventorySnapshot is a read-only view of one user's current stock, keyed
// by batch id.
type InventorySnapshot map[string]entity.Medicine

// BuildSnapshot indexes the user's medicines by batch id.
func BuildSnapshot(medicines []entity.Medicine) InventorySnapshot {
	snap := make(InventorySnapshot, len(medicines))
	for _, m := range medicines {
		snap[m.BatchID] = m
	}
	return snap
}

// Reconciler partitions extracted records into restocks of existing
// inventory and candidate-new items.
type Reconciler struct {
	logger *slog.Logger
}

func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger}
}

// Reconcile classifies each record exactly once, preserving input order.
// On a batch-id hit: quantity is additive (a restock adds to, never
// replaces, stock on hand), the supplier's latest non-zero price wins, and
// descriptive fields come from the existing row — the bill never supplies
// them. On a miss the record is New with empty descriptive fields.
func (r *Reconciler) Reconcile(records []entity.ExtractedRecord, snapshot InventorySnapshot) []entity.ReconciledRecord {
	out := make([]entity.ReconciledRecord, 0, len(records))
	existing, fresh := 0, 0

	for _, rec := range records {
		m, ok := snapshot[rec.BatchID]
		if !ok || rec.BatchID == "" {
			fresh++
			out = append(out, entity.ReconciledRecord{
				ExtractedRecord: rec,
				Classification:  entity.ClassNew,
			})
			continue
		}

		existing++
		merged := rec
		merged.Quantity = m.Quantity + rec.Quantity
		if rec.Price.IsZero() {
			merged.Price = m.Price
		}
		if merged.Manufacturer == "" {
			merged.Manufacturer = m.Manufacturer
		}
		if merged.ExpiryRaw == "" {
			merged.ExpiryRaw = m.ExpiryRaw
		}

		out = append(out, entity.ReconciledRecord{
			ExtractedRecord: merged,
			Classification:  entity.ClassExisting,
			Enrichment: entity.Enrichment{
				Category:             m.Category,
				Form:                 m.Form,
				QuantityPerPack:      m.QuantityPerPack,
				CoverDisease:         m.CoverDisease,
				Symptoms:             m.Symptoms,
				SideEffects:          m.SideEffects,
				Instructions:         m.Instructions,
				LocalizedDescription: m.LocalizedDescription,
			},
		})
	}

	r.logger.Info("reconcile.ok", "total", len(records), "existing", existing, "new", fresh)
	return out
}
