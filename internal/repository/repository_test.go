package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newItem(batchID, name string, price string, qty int) entity.DraftItem {
	return entity.DraftItem{
		ExtractedRecord: entity.ExtractedRecord{
			BatchID:  batchID,
			Name:     name,
			Price:    dec(price),
			Quantity: qty,
		},
		Enrichment: entity.Enrichment{
			Category: "Analgesics", Form: "Tablet", QuantityPerPack: "15 per strip",
			CoverDisease: "Fever", Symptoms: "High temperature", SideEffects: "Rare nausea",
			Instructions: "After food", LocalizedDescription: "Bukhar ke liye",
		},
		Classification: entity.ClassNew,
	}
}

func TestCommitImportInsertsNewMedicines(t *testing.T) {
	db := openTestDB(t)
	repo := NewInventoryRepository(db, nil)
	ctx := context.Background()

	tx, summary, err := repo.CommitImport(ctx, CommitRequest{
		UserID:     "u1",
		SourceFile: "bill.csv",
		Items: []entity.DraftItem{
			newItem("B001", "Paracetamol 500mg", "25.50", 10),
			newItem("B002", "Cetirizine 10mg", "18.00", 12),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, entity.Summary{Total: 2, New: 2}, summary)
	assert.Contains(t, tx.ImportID, "imp-")

	inv, err := repo.FetchInventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Equal(t, constants.SourceImportNew, inv[0].ImportSource)
	assert.Equal(t, tx.ImportID, inv[0].ImportID)
	assert.Equal(t, "Analgesics", inv[0].Category)

	var ops []entity.ReversibleOp
	require.NoError(t, json.Unmarshal(tx.Operations, &ops))
	require.Len(t, ops, 2)
	assert.Equal(t, entity.OpInsert, ops[0].Op)

	total, err := repo.TotalItems(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestCommitImportUpdatesExistingBatch(t *testing.T) {
	db := openTestDB(t)
	repo := NewInventoryRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&entity.Medicine{
		UserID: "u1", BatchID: "B001", Name: "Paracetamol 500mg",
		Price: dec("20.00"), Quantity: 8,
		ExpiryRaw: "Jan-2026", ImportSource: constants.SourceManual,
	}).Error)

	item := newItem("B001", "Paracetamol 500mg", "25.50", 18)
	item.Classification = entity.ClassExisting
	item.ExpiryRaw = ""

	tx, summary, err := repo.CommitImport(ctx, CommitRequest{UserID: "u1", SourceFile: "bill.csv", Items: []entity.DraftItem{item}})
	require.NoError(t, err)
	assert.Equal(t, entity.Summary{Total: 1, Updated: 1}, summary)

	var m entity.Medicine
	require.NoError(t, db.Where("user_id = ? AND batch_id = ?", "u1", "B001").First(&m).Error)
	assert.Equal(t, 18, m.Quantity)
	assert.True(t, m.Price.Equal(dec("25.50")))
	assert.Equal(t, constants.SourceImportUpdated, m.ImportSource)
	assert.Equal(t, "Jan-2026", m.ExpiryRaw, "blank bill expiry keeps the stored value")

	var ops []entity.ReversibleOp
	require.NoError(t, json.Unmarshal(tx.Operations, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, entity.OpUpdate, ops[0].Op)
	assert.Equal(t, 8, ops[0].PriorQuantity)
	assert.Equal(t, "20", ops[0].PriorPrice)
	assert.Equal(t, constants.SourceManual, ops[0].PriorSource)
	assert.Equal(t, "Jan-2026", ops[0].PriorExpiry)
	assert.Empty(t, ops[0].PriorImportID)
}

func TestCommitImportGeneratesBatchID(t *testing.T) {
	db := openTestDB(t)
	repo := NewInventoryRepository(db, nil)

	_, _, err := repo.CommitImport(context.Background(), CommitRequest{
		UserID: "u1",
		Items:  []entity.DraftItem{newItem("", "Unlabeled Syrup", "80.00", 1)},
	})
	require.NoError(t, err)

	var m entity.Medicine
	require.NoError(t, db.Where("user_id = ?", "u1").First(&m).Error)
	assert.Contains(t, m.BatchID, "AUTO-UNLABELED-SYRUP-")
}

func TestCommitImportRejectsEmptyDraft(t *testing.T) {
	repo := NewInventoryRepository(openTestDB(t), nil)
	_, _, err := repo.CommitImport(context.Background(), CommitRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, common.KindCommitFailed, common.KindOf(err))
}

func TestRollbackRestoresPriorState(t *testing.T) {
	db := openTestDB(t)
	inv := NewInventoryRepository(db, nil)
	txRepo := NewImportTxRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&entity.Medicine{
		UserID: "u1", BatchID: "B001", Name: "Paracetamol 500mg",
		Price: dec("20.00"), Quantity: 8,
		ExpiryRaw: "Jan-2026", Manufacturer: "Cipla",
		ImportSource: constants.SourceManual,
	}).Error)

	update := newItem("B001", "Paracetamol 500mg", "25.50", 18)
	update.Classification = entity.ClassExisting
	update.ExpiryRaw = "Dec-2027"
	update.Manufacturer = "Sun Pharma"
	insert := newItem("B777", "Azithromycin 250mg", "120.00", 5)

	tx, _, err := inv.CommitImport(ctx, CommitRequest{
		UserID: "u1", SourceFile: "bill.csv",
		Items: []entity.DraftItem{update, insert},
	})
	require.NoError(t, err)

	require.NoError(t, txRepo.Rollback(ctx, tx.ImportID))

	var m entity.Medicine
	require.NoError(t, db.Where("user_id = ? AND batch_id = ?", "u1", "B001").First(&m).Error)
	assert.Equal(t, 8, m.Quantity, "update reversed to prior quantity")
	assert.True(t, m.Price.Equal(dec("20.00")))
	assert.Equal(t, constants.SourceManual, m.ImportSource)
	assert.Equal(t, "Jan-2026", m.ExpiryRaw, "bill expiry reversed")
	assert.Equal(t, "Cipla", m.Manufacturer, "bill manufacturer reversed")
	assert.Empty(t, m.ImportID, "import-id stamp removed")

	err = db.Where("user_id = ? AND batch_id = ?", "u1", "B777").First(&entity.Medicine{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "inserted row deleted")

	total, err := inv.TotalItems(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	stored, err := txRepo.Get(ctx, tx.ImportID)
	require.NoError(t, err)
	assert.True(t, stored.Consumed)
	assert.NotNil(t, stored.ConsumedAt)
}

func TestRollbackIsConsumeOnce(t *testing.T) {
	db := openTestDB(t)
	inv := NewInventoryRepository(db, nil)
	txRepo := NewImportTxRepository(db, nil)
	ctx := context.Background()

	tx, _, err := inv.CommitImport(ctx, CommitRequest{
		UserID: "u1",
		Items:  []entity.DraftItem{newItem("B001", "Paracetamol 500mg", "25.50", 10)},
	})
	require.NoError(t, err)

	require.NoError(t, txRepo.Rollback(ctx, tx.ImportID))

	err = txRepo.Rollback(ctx, tx.ImportID)
	require.Error(t, err)
	assert.Equal(t, common.KindRollbackAlreadyConsumed, common.KindOf(err))

	// The second attempt must not touch inventory again.
	total, err := inv.TotalItems(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRollbackUnknownImport(t *testing.T) {
	txRepo := NewImportTxRepository(openTestDB(t), nil)

	err := txRepo.Rollback(context.Background(), "imp-missing")
	require.Error(t, err)
	assert.Equal(t, common.KindRollbackNotFound, common.KindOf(err))

	_, err = txRepo.Get(context.Background(), "imp-missing")
	assert.Equal(t, common.KindRollbackNotFound, common.KindOf(err))
}
