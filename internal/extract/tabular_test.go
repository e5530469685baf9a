package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stockrx/importer/internal/common"
)

func csvMeta() FileMeta  { return FileMeta{Filename: "bill.csv", SizeBytes: 1} }
func xlsxMeta() FileMeta { return FileMeta{Filename: "bill.xlsx", SizeBytes: 1} }

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestTabularExtractCSV(t *testing.T) {
	content := []byte(strings.Join([]string{
		"Batch_ID,Name of Medicine,Price (INR),Total Quantity,Manufacturer,Expiry Date",
		"B001,Paracetamol 500mg,\"₹25.50\",10,Cipla,Sep-2026",
		"B002,Azithromycin 250mg,120,5,,",
	}, "\n"))

	ex := NewTabularExtractor(50, nil)
	res, err := ex.Extract(context.Background(), content, csvMeta())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Zero(t, res.Truncated)

	first := res.Records[0]
	assert.Equal(t, "B001", first.BatchID)
	assert.Equal(t, "Paracetamol 500mg", first.Name)
	assert.Equal(t, "25.5", first.Price.String())
	assert.Equal(t, 10, first.Quantity)
	assert.Equal(t, "Cipla", first.Manufacturer)
	assert.Equal(t, "Sep-2026", first.ExpiryRaw)

	second := res.Records[1]
	assert.Empty(t, second.Manufacturer)
	assert.Empty(t, second.ExpiryRaw)
}

func TestTabularExtractHeaderVariants(t *testing.T) {
	content := []byte("batch no,medicine,rate,qty\nB1,Dolo 650,30,2\n")

	ex := NewTabularExtractor(50, nil)
	res, err := ex.Extract(context.Background(), content, csvMeta())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "B1", res.Records[0].BatchID)
	assert.Equal(t, 2, res.Records[0].Quantity)
}

func TestTabularExtractMissingColumns(t *testing.T) {
	content := []byte("Name of Medicine,Price\nDolo 650,30\n")

	ex := NewTabularExtractor(50, nil)
	_, err := ex.Extract(context.Background(), content, csvMeta())
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidContent, common.KindOf(err))
	assert.Contains(t, err.Error(), "Batch_ID")
	assert.Contains(t, err.Error(), "Quantity")
}

func TestTabularExtractHeaderOnly(t *testing.T) {
	content := []byte("Batch_ID,Name of Medicine,Price,Quantity\n")

	ex := NewTabularExtractor(50, nil)
	_, err := ex.Extract(context.Background(), content, csvMeta())
	require.Error(t, err)
	assert.Equal(t, common.KindEmptyResult, common.KindOf(err))
}

func TestTabularExtractSkipsUnusableRows(t *testing.T) {
	content := []byte(strings.Join([]string{
		"Batch_ID,Name of Medicine,Price,Quantity",
		",Missing Batch,10,1",
		"B2,,10,1",
		"B3,Zero Qty,10,0",
		"B4,Bad Price,abc,1",
		"B5,Good Row,10,1",
	}, "\n"))

	ex := NewTabularExtractor(50, nil)
	res, err := ex.Extract(context.Background(), content, csvMeta())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "B5", res.Records[0].BatchID)
}

func TestTabularExtractAllRowsUnusable(t *testing.T) {
	content := []byte("Batch_ID,Name of Medicine,Price,Quantity\n,NoBatch,10,1\n")

	ex := NewTabularExtractor(50, nil)
	_, err := ex.Extract(context.Background(), content, csvMeta())
	require.Error(t, err)
	assert.Equal(t, common.KindEmptyResult, common.KindOf(err))
}

func TestTabularExtractTruncates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Batch_ID,Name of Medicine,Price,Quantity\n")
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&sb, "B%d,Medicine %d,10,1\n", i, i)
	}

	ex := NewTabularExtractor(5, nil)
	res, err := ex.Extract(context.Background(), []byte(sb.String()), csvMeta())
	require.NoError(t, err)
	assert.Len(t, res.Records, 5)
	assert.Equal(t, 2, res.Truncated)
	assert.Equal(t, "B0", res.Records[0].BatchID)
}

func TestTabularExtractXLSX(t *testing.T) {
	content := buildXLSX(t, [][]any{
		{"Batch_ID", "Name of Medicine", "Price (INR)", "Total Quantity"},
		{"B100", "Cetirizine 10mg", 18.5, 12},
		{"B101", "Ibuprofen 400mg", 42, 6},
	})

	ex := NewTabularExtractor(50, nil)
	res, err := ex.Extract(context.Background(), content, xlsxMeta())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "B100", res.Records[0].BatchID)
	assert.Equal(t, 12, res.Records[0].Quantity)
	assert.True(t, res.Records[1].Price.Equal(res.Records[1].Price.Truncate(0)))
}

func TestTabularExtractCorruptXLSX(t *testing.T) {
	ex := NewTabularExtractor(50, nil)
	_, err := ex.Extract(context.Background(), []byte("this is not a workbook"), xlsxMeta())
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidContent, common.KindOf(err))
}
