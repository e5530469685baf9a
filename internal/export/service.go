package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stockrx/importer/internal/entity"
	"github.com/stockrx/importer/internal/repository"
)

var columns = []string{
	"Batch ID",
	"Name",
	"Category",
	"Form",
	"Price",
	"Quantity",
	"Quantity Per Pack",
	"Manufacturer",
	"Expiry",
	"Import Source",
	"Updated At",
}

// Service renders a user's inventory as a spreadsheet download.
type Service struct {
	repo   repository.InventoryRepository
	logger *slog.Logger
}

func NewService(repo repository.InventoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportXLSX writes the full inventory of userID into an XLSX workbook and
// returns the serialized bytes plus a suggested filename.
func (s *Service) ExportXLSX(ctx context.Context, userID string) ([]byte, string, error) {
	medicines, err := s.repo.FetchInventory(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch inventory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", err
		}
	}

	for row, m := range medicines {
		if err := s.writeRow(f, sheet, row+2, m); err != nil {
			return nil, "", err
		}
	}

	var buf *bytes.Buffer
	buf, err = f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	s.logger.Info("export.ok", "user_id", userID, "rows", len(medicines), "bytes", buf.Len())
	return buf.Bytes(), filename, nil
}

func (s *Service) writeRow(f *excelize.File, sheet string, row int, m entity.Medicine) error {
	price, _ := m.Price.Float64()
	values := []any{
		m.BatchID,
		m.Name,
		m.Category,
		m.Form,
		price,
		m.Quantity,
		m.QuantityPerPack,
		m.Manufacturer,
		m.ExpiryRaw,
		m.ImportSource,
		m.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
