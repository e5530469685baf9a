package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

// CommitRequest wraps parameters for committing a reviewed draft.
type CommitRequest struct {
	UserID     string
	SourceFile string
	Items      []entity.DraftItem
}

type InventoryRepository interface {
	FetchInventory(ctx context.Context, userID string) ([]entity.Medicine, error)
	CommitImport(ctx context.Context, req CommitRequest) (*entity.ImportTransaction, entity.Summary, error)
	TotalItems(ctx context.Context, userID string) (int64, error)
}

type inventoryRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewInventoryRepository(db *gorm.DB, logger *slog.Logger) InventoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &inventoryRepository{db: db, logger: logger}
}

func (r *inventoryRepository) FetchInventory(ctx context.Context, userID string) ([]entity.Medicine, error) {
	var medicines []entity.Medicine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&medicines).Error
	if err != nil {
		r.logger.Error("failed to fetch inventory", "user_id", userID, "error", err)
		return nil, err
	}
	return medicines, nil
}

// CommitImport performs the bulk upsert as one batched transaction. The
// underlying store's atomicity is not assumed beyond that transaction; the
// recorded ImportTransaction is the actual safety net for reversal.
func (r *inventoryRepository) CommitImport(ctx context.Context, req CommitRequest) (*entity.ImportTransaction, entity.Summary, error) {
	if len(req.Items) == 0 {
		return nil, entity.Summary{}, common.NewCommitError("nothing to commit", nil)
	}

	importID := "imp-" + uuid.New().String()
	now := time.Now().UTC()

	var summary entity.Summary
	var importTx entity.ImportTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ops := make([]entity.ReversibleOp, 0, len(req.Items))
		summary = entity.Summary{Total: len(req.Items)}

		for _, item := range req.Items {
			batchID := item.BatchID
			if batchID == "" {
				batchID = autoBatchID(item.Name, now)
			}

			var existing entity.Medicine
			err := tx.Where("user_id = ? AND batch_id = ?", req.UserID, batchID).
				First(&existing).Error
			switch {
			case err == nil:
				ops = append(ops, entity.ReversibleOp{
					Op:                entity.OpUpdate,
					MedicineID:        existing.ID,
					BatchID:           batchID,
					PriorQuantity:     existing.Quantity,
					PriorPrice:        existing.Price.String(),
					PriorSource:       existing.ImportSource,
					PriorExpiry:       existing.ExpiryRaw,
					PriorManufacturer: existing.Manufacturer,
					PriorImportID:     existing.ImportID,
				})
				updates := map[string]any{
					"quantity":      item.Quantity,
					"price":         item.Price,
					"import_source": constants.SourceImportUpdated,
					"import_id":     importID,
					"updated_at":    now,
				}
				if item.ExpiryRaw != "" {
					updates["expiry_raw"] = item.ExpiryRaw
				}
				if item.Manufacturer != "" {
					updates["manufacturer"] = item.Manufacturer
				}
				if err := tx.Model(&entity.Medicine{}).
					Where("id = ?", existing.ID).
					Updates(updates).Error; err != nil {
					return fmt.Errorf("update %s: %w", batchID, err)
				}
				summary.Updated++

			case errors.Is(err, gorm.ErrRecordNotFound):
				m := entity.Medicine{
					UserID:               req.UserID,
					BatchID:              batchID,
					Name:                 item.Name,
					Price:                item.Price,
					Quantity:             item.Quantity,
					Category:             item.Category,
					Form:                 item.Form,
					QuantityPerPack:      item.QuantityPerPack,
					CoverDisease:         item.CoverDisease,
					Symptoms:             item.Symptoms,
					SideEffects:          item.SideEffects,
					Instructions:         item.Instructions,
					LocalizedDescription: item.LocalizedDescription,
					Manufacturer:         item.Manufacturer,
					ExpiryRaw:            item.ExpiryRaw,
					ImportSource:         constants.SourceImportNew,
					ImportID:             importID,
				}
				if err := tx.Create(&m).Error; err != nil {
					return fmt.Errorf("insert %s: %w", batchID, err)
				}
				ops = append(ops, entity.ReversibleOp{
					Op:         entity.OpInsert,
					MedicineID: m.ID,
					BatchID:    batchID,
				})
				summary.New++

			default:
				return fmt.Errorf("lookup %s: %w", batchID, err)
			}
		}

		opsJSON, err := json.Marshal(ops)
		if err != nil {
			return fmt.Errorf("serialize operations: %w", err)
		}
		importTx = entity.ImportTransaction{
			ImportID:   importID,
			UserID:     req.UserID,
			SourceFile: req.SourceFile,
			Operations: opsJSON,
		}
		if err := tx.Create(&importTx).Error; err != nil {
			return fmt.Errorf("record import transaction: %w", err)
		}

		return recomputeCounter(tx, req.UserID)
	})
	if err != nil {
		r.logger.Error("commit failed", "user_id", req.UserID, "import_id", importID, "error", err)
		return nil, entity.Summary{}, common.NewCommitError("bulk write failed", err)
	}

	r.logger.Info("commit.ok",
		"user_id", req.UserID,
		"import_id", importID,
		"total", summary.Total,
		"updated", summary.Updated,
		"new", summary.New,
	)
	return &importTx, summary, nil
}

func (r *inventoryRepository) TotalItems(ctx context.Context, userID string) (int64, error) {
	var counter entity.StockCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.TotalItems, nil
}

// recomputeCounter rebuilds the user's total-item counter from the store.
// Counting instead of incrementing avoids drift under concurrent imports.
func recomputeCounter(tx *gorm.DB, userID string) error {
	var total int64
	if err := tx.Model(&entity.Medicine{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	counter := entity.StockCounter{
		UserID:     userID,
		TotalItems: total,
		UpdatedAt:  time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&counter).Error
}

func autoBatchID(name string, now time.Time) string {
	slug := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if len(slug) > 24 {
		slug = slug[:24]
	}
	return fmt.Sprintf("AUTO-%s-%d", slug, now.UnixMilli())
}
