package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

type ImportTxRepository interface {
	Get(ctx context.Context, importID string) (*entity.ImportTransaction, error)
	Rollback(ctx context.Context, importID string) error
}

type importTxRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewImportTxRepository(db *gorm.DB, logger *slog.Logger) ImportTxRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &importTxRepository{db: db, logger: logger}
}

func (r *importTxRepository) Get(ctx context.Context, importID string) (*entity.ImportTransaction, error) {
	var tx entity.ImportTransaction
	err := r.db.WithContext(ctx).Where("import_id = ?", importID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewRollbackError(common.KindRollbackNotFound,
			fmt.Sprintf("no import transaction %q", importID))
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Rollback reverses every write captured by the import transaction, then
// marks it consumed. A second rollback on the same id returns
// RollbackAlreadyConsumed so state is never reversed twice.
func (r *importTxRepository) Rollback(ctx context.Context, importID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entity.ImportTransaction
		err := tx.Where("import_id = ?", importID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewRollbackError(common.KindRollbackNotFound,
				fmt.Sprintf("no import transaction %q", importID))
		}
		if err != nil {
			return err
		}
		if record.Consumed {
			return common.NewRollbackError(common.KindRollbackAlreadyConsumed,
				fmt.Sprintf("import %q was already rolled back", importID))
		}

		var ops []entity.ReversibleOp
		if err := json.Unmarshal(record.Operations, &ops); err != nil {
			return fmt.Errorf("decode operations: %w", err)
		}

		for _, op := range ops {
			switch op.Op {
			case entity.OpInsert:
				if err := tx.Delete(&entity.Medicine{}, op.MedicineID).Error; err != nil {
					return fmt.Errorf("delete inserted %s: %w", op.BatchID, err)
				}
			case entity.OpUpdate:
				price, err := decimal.NewFromString(op.PriorPrice)
				if err != nil {
					return fmt.Errorf("decode prior price for %s: %w", op.BatchID, err)
				}
				updates := map[string]any{
					"quantity":      op.PriorQuantity,
					"price":         price,
					"import_source": op.PriorSource,
					"expiry_raw":    op.PriorExpiry,
					"manufacturer":  op.PriorManufacturer,
					"import_id":     op.PriorImportID,
					"updated_at":    time.Now().UTC(),
				}
				if err := tx.Model(&entity.Medicine{}).
					Where("id = ?", op.MedicineID).
					Updates(updates).Error; err != nil {
					return fmt.Errorf("restore %s: %w", op.BatchID, err)
				}
			default:
				return fmt.Errorf("unknown operation %q in import %q", op.Op, importID)
			}
		}

		now := time.Now().UTC()
		if err := tx.Model(&entity.ImportTransaction{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{"consumed": true, "consumed_at": now}).Error; err != nil {
			return fmt.Errorf("mark consumed: %w", err)
		}

		return recomputeCounter(tx, record.UserID)
	})
	if err != nil {
		if common.KindOf(err) == "" {
			r.logger.Error("rollback failed", "import_id", importID, "error", err)
		}
		return err
	}

	r.logger.Info("rollback.ok", "import_id", importID)
	return nil
}
