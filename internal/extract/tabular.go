package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

// Known header spellings per field, tried in order. Matching is
// case-insensitive and punctuation-insensitive.
var (
	batchHeaders = []string{"Batch_ID", "BatchID", "Batch No", "Batch"}
	nameHeaders  = []string{"Name of Medicine", "Medicine Name", "Medicine", "Item Name", "Name", "Description"}
	priceHeaders = []string{"Price (INR)", "Price_INR", "Price INR", "Unit Price", "Price", "Rate", "MRP"}
	qtyHeaders   = []string{"Total Quantity", "Total_Quantity", "Total Qty", "Quantity", "Qty"}
	mfrHeaders   = []string{"Manufacturer", "Mfr", "Company"}
	expHeaders   = []string{"Expiry Date", "Expiry_Date", "Expiry", "Exp"}
)

// TabularExtractor parses XLSX and CSV bills deterministically.
type TabularExtractor struct {
	maxItems int
	logger   *slog.Logger
}

func NewTabularExtractor(maxItems int, logger *slog.Logger) *TabularExtractor {
	if maxItems <= 0 {
		maxItems = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TabularExtractor{maxItems: maxItems, logger: logger}
}

func (t *TabularExtractor) Extract(ctx context.Context, content []byte, meta FileMeta) (Result, error) {
	format := constants.MapExtToFormat(filepath.Ext(meta.Filename))

	var rows [][]string
	var err error
	switch format {
	case constants.FormatSpreadsheet:
		rows, err = readXLSXRows(content)
	case constants.FormatCSV:
		rows, err = readCSVRows(content)
	default:
		return Result{}, common.NewExtractionError(common.KindUnsupportedFormat,
			fmt.Sprintf("tabular extractor cannot handle %q", meta.Filename), nil)
	}
	if err != nil {
		return Result{}, common.NewExtractionError(common.KindInvalidContent,
			fmt.Sprintf("cannot parse %s", meta.Filename), err)
	}
	if len(rows) < 2 {
		return Result{}, common.NewExtractionError(common.KindEmptyResult,
			"no data rows found in file", nil)
	}

	header := rows[0]
	cols, missing := resolveColumns(header)
	if len(missing) > 0 {
		return Result{}, common.NewExtractionError(common.KindInvalidContent,
			"missing required columns: "+strings.Join(missing, ", "), nil)
	}

	records := make([]entity.ExtractedRecord, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		rec, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return Result{}, common.NewExtractionError(common.KindEmptyResult,
			fmt.Sprintf("no usable rows (%d skipped)", skipped), nil)
	}

	truncated := 0
	if len(records) > t.maxItems {
		truncated = len(records) - t.maxItems
		records = records[:t.maxItems]
	}

	t.logger.Info("extract.tabular.ok",
		"filename", meta.Filename,
		"records", len(records),
		"skipped", skipped,
		"truncated", truncated,
	)
	return Result{Records: records, Truncated: truncated}, nil
}

// columnIndexes holds resolved column positions; -1 means absent.
type columnIndexes struct {
	batch, name, price, qty, mfr, expiry int
}

func resolveColumns(header []string) (columnIndexes, []string) {
	norms := make([]string, len(header))
	for i, h := range header {
		norms[i] = normalizeHeader(h)
	}
	find := func(variants []string) int {
		for _, v := range variants {
			want := normalizeHeader(v)
			for i, n := range norms {
				if n == want {
					return i
				}
			}
		}
		return -1
	}

	cols := columnIndexes{
		batch:  find(batchHeaders),
		name:   find(nameHeaders),
		price:  find(priceHeaders),
		qty:    find(qtyHeaders),
		mfr:    find(mfrHeaders),
		expiry: find(expHeaders),
	}

	var missing []string
	if cols.batch < 0 {
		missing = append(missing, "Batch_ID")
	}
	if cols.name < 0 {
		missing = append(missing, "Name of Medicine")
	}
	if cols.price < 0 {
		missing = append(missing, "Price")
	}
	if cols.qty < 0 {
		missing = append(missing, "Quantity")
	}
	return cols, missing
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseRow(row []string, cols columnIndexes) (entity.ExtractedRecord, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	batch := cell(cols.batch)
	name := cell(cols.name)
	if batch == "" || name == "" {
		return entity.ExtractedRecord{}, false
	}

	price, err := parsePrice(cell(cols.price))
	if err != nil {
		return entity.ExtractedRecord{}, false
	}
	qty, err := parseQuantity(cell(cols.qty))
	if err != nil || qty <= 0 {
		return entity.ExtractedRecord{}, false
	}

	return entity.ExtractedRecord{
		BatchID:      batch,
		Name:         name,
		Price:        price,
		Quantity:     qty,
		Manufacturer: cell(cols.mfr),
		ExpiryRaw:    cell(cols.expiry),
	}, true
}

func parsePrice(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price")
	}
	return decimal.NewFromString(cleaned)
}

func parseQuantity(s string) (int, error) {
	d, err := parsePrice(s)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

func readXLSXRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSVRows(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are handled per-cell
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
