package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/draft"
	"github.com/stockrx/importer/internal/entity"
	"github.com/stockrx/importer/internal/extract"
	"github.com/stockrx/importer/internal/reconcile"
	"github.com/stockrx/importer/internal/repository"
	"github.com/stockrx/importer/internal/search"
)

// Outcome tags how an upload run ended. Callers branch on the tag, never
// on the shape of the payload.
type Outcome string

const (
	// OutcomeDraftReady means new records were found; nothing was written
	// and the draft awaits operator review.
	OutcomeDraftReady Outcome = "draft_ready"
	// OutcomeAutoCommitted means every record matched existing stock and
	// the restock was committed without review.
	OutcomeAutoCommitted Outcome = "auto_committed"
)

// Result is the outcome of processing one uploaded bill.
type Result struct {
	Outcome  Outcome            `json:"outcome"`
	Draft    entity.ImportDraft `json:"draft"`
	Summary  entity.Summary     `json:"summary"`
	ImportID string             `json:"importId,omitempty"`
}

// Enricher fills descriptive metadata for candidate-new records.
type Enricher interface {
	Enrich(ctx context.Context, newRecords []entity.ReconciledRecord) ([]entity.EnrichedRecord, error)
}

// Processor wires the import stages together: validate, extract,
// reconcile, enrich, gate, and either auto-commit or hand back a draft.
type Processor struct {
	validator   *extract.Validator
	extractor   extract.DocumentExtractor
	reconciler  *reconcile.Reconciler
	enricher    Enricher
	gate        *draft.Gate
	inventory   repository.InventoryRepository
	importTx    repository.ImportTxRepository
	invalidator *search.Invalidator
	logger      *slog.Logger
}

func NewProcessor(
	validator *extract.Validator,
	extractor extract.DocumentExtractor,
	reconciler *reconcile.Reconciler,
	enricher Enricher,
	gate *draft.Gate,
	inventory repository.InventoryRepository,
	importTx repository.ImportTxRepository,
	invalidator *search.Invalidator,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		validator:   validator,
		extractor:   extractor,
		reconciler:  reconciler,
		enricher:    enricher,
		gate:        gate,
		inventory:   inventory,
		importTx:    importTx,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Process runs one uploaded bill through the pipeline for userID.
//
// A bill that only restocks known batches is committed immediately; a bill
// introducing any new medicine produces a draft and writes nothing.
func (p *Processor) Process(ctx context.Context, userID string, content []byte, meta extract.FileMeta) (*Result, error) {
	p.logger.Info("pipeline.start",
		"req_id", common.RequestIDFromContext(ctx),
		"user_id", userID,
		"filename", meta.Filename,
		"size", meta.SizeBytes,
	)

	if vr := p.validator.Validate(meta); !vr.OK {
		return nil, common.NewValidationError(strings.Join(vr.Reasons, "; "))
	}

	extracted, err := p.extractor.Extract(ctx, content, meta)
	if err != nil {
		return nil, err
	}
	if extracted.Truncated > 0 {
		p.logger.Warn("pipeline.truncated", "user_id", userID, "dropped", extracted.Truncated)
	}

	inventory, err := p.inventory.FetchInventory(ctx, userID)
	if err != nil {
		return nil, common.NewPipelineError(common.StageCommit, common.KindCommitFailed,
			"failed to load current inventory", err)
	}

	reconciled := p.reconciler.Reconcile(extracted.Records, reconcile.BuildSnapshot(inventory))

	var newRecords []entity.ReconciledRecord
	for _, rec := range reconciled {
		if rec.Classification == entity.ClassNew {
			newRecords = append(newRecords, rec)
		}
	}

	if len(newRecords) == 0 {
		return p.autoCommit(ctx, userID, meta.Filename, reconciled)
	}

	enriched, err := p.enricher.Enrich(ctx, newRecords)
	if err != nil {
		return nil, err
	}

	d := p.gate.Build(reconciled, enriched)
	p.logger.Info("pipeline.draft_ready",
		"user_id", userID,
		"items", len(d.Items),
		"excluded", d.ExcludedCount,
	)
	return &Result{Outcome: OutcomeDraftReady, Draft: d, Summary: d.Summary}, nil
}

// autoCommit writes a pure restock straight through, skipping review.
func (p *Processor) autoCommit(ctx context.Context, userID, sourceFile string, reconciled []entity.ReconciledRecord) (*Result, error) {
	d := p.gate.Build(reconciled, nil)

	tx, summary, err := p.inventory.CommitImport(ctx, repository.CommitRequest{
		UserID:     userID,
		SourceFile: sourceFile,
		Items:      d.Items,
	})
	if err != nil {
		return nil, err
	}

	p.invalidator.Invalidate(ctx, userID)
	p.logger.Info("pipeline.auto_committed",
		"user_id", userID, "import_id", tx.ImportID, "updated", summary.Updated)
	return &Result{
		Outcome:  OutcomeAutoCommitted,
		Draft:    d,
		Summary:  summary,
		ImportID: tx.ImportID,
	}, nil
}

// Commit persists a reviewed draft.
func (p *Processor) Commit(ctx context.Context, userID, sourceFile string, items []entity.DraftItem) (string, entity.Summary, error) {
	tx, summary, err := p.inventory.CommitImport(ctx, repository.CommitRequest{
		UserID:     userID,
		SourceFile: sourceFile,
		Items:      items,
	})
	if err != nil {
		return "", entity.Summary{}, err
	}
	p.invalidator.Invalidate(ctx, userID)
	return tx.ImportID, summary, nil
}

// Rollback reverses a previously committed import.
func (p *Processor) Rollback(ctx context.Context, userID, importID string) error {
	if err := p.importTx.Rollback(ctx, importID); err != nil {
		return err
	}
	p.invalidator.Invalidate(ctx, userID)
	return nil
}
