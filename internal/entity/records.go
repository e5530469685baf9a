package entity

import "github.com/shopspring/decimal"

// ExtractedRecord is one line item as read from a supplier bill. Immutable
// after extraction except for user edits during review.
type ExtractedRecord struct {
	BatchID      string          `json:"batchId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	ExpiryRaw    string          `json:"expiryRaw,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
}

// Classification is assigned exactly once by the reconciler and never
// re-evaluated downstream.
type Classification string

const (
	ClassExisting Classification = "existing"
	ClassNew      Classification = "new"
)

// Enrichment holds the eight descriptive fields produced by the enricher.
type Enrichment struct {
	Category             string `json:"category"`
	Form                 string `json:"form"`
	QuantityPerPack      string `json:"quantityPerPack"`
	CoverDisease         string `json:"coverDisease"`
	Symptoms             string `json:"symptoms"`
	SideEffects          string `json:"sideEffects"`
	Instructions         string `json:"instructions"`
	LocalizedDescription string `json:"localizedDescription"`
}

// Complete reports whether all eight descriptive fields are non-empty.
func (e Enrichment) Complete() bool {
	return e.Category != "" && e.Form != "" && e.QuantityPerPack != "" &&
		e.CoverDisease != "" && e.Symptoms != "" && e.SideEffects != "" &&
		e.Instructions != "" && e.LocalizedDescription != ""
}

// ReconciledRecord is an extracted record after snapshot matching. For
// Existing records Quantity and Price already hold the merged values and
// Enrichment carries the stored descriptive fields; for New records
// Enrichment is zero pending the enricher.
type ReconciledRecord struct {
	ExtractedRecord
	Enrichment
	Classification Classification `json:"classification"`
}

// EnrichedRecord is a New-classified record with the full descriptive set.
// Invariant: Enrichment.Complete() holds, or the record does not exist.
type EnrichedRecord struct {
	ExtractedRecord
	Enrichment
}

// DraftItem is one reviewable line of an import draft.
type DraftItem struct {
	ExtractedRecord
	Enrichment
	Classification Classification `json:"classification"`
}

// Summary counts one pipeline run. Total covers every reconciled record,
// including New records later excluded by the cap.
type Summary struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	New     int `json:"new"`
}

// ImportDraft is the unit handed back to the caller for review. Transient;
// never persisted until committed.
type ImportDraft struct {
	Items         []DraftItem `json:"items"`
	ExcludedCount int         `json:"excludedCount"`
	ExcludedNames []string    `json:"excludedNames,omitempty"`
	Summary       Summary     `json:"summary"`
}
