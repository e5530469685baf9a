package extract

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/stockrx/importer/constants"
	"github.com/stockrx/importer/internal/common"
)

// Extractor routes a validated upload to the tabular or vision strategy.
type Extractor struct {
	tabular *TabularExtractor
	vision  *VisionExtractor
}

func NewExtractor(tabular *TabularExtractor, vision *VisionExtractor) *Extractor {
	return &Extractor{tabular: tabular, vision: vision}
}

func (e *Extractor) Extract(ctx context.Context, content []byte, meta FileMeta) (Result, error) {
	format := constants.MapExtToFormat(filepath.Ext(meta.Filename))
	switch {
	case format == constants.FormatSpreadsheet || format == constants.FormatCSV:
		return e.tabular.Extract(ctx, content, meta)
	case constants.IsVisionFormat(format):
		return e.vision.Extract(ctx, content, meta)
	default:
		return Result{}, common.NewExtractionError(common.KindUnsupportedFormat,
			fmt.Sprintf("no extractor for %q", meta.Filename), nil)
	}
}
