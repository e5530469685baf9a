package constants

import "strings"

// DocumentFormat is the coarse input class the pipeline routes on.
type DocumentFormat string

const (
	FormatImage       DocumentFormat = "IMAGE"
	FormatPDF         DocumentFormat = "PDF"
	FormatSpreadsheet DocumentFormat = "SPREADSHEET"
	FormatCSV         DocumentFormat = "CSV"
)

// AllowedExtensions maps accepted upload extensions to their format class.
var AllowedExtensions = map[string]DocumentFormat{
	"jpg":  FormatImage,
	"jpeg": FormatImage,
	"png":  FormatImage,
	"webp": FormatImage,
	"pdf":  FormatPDF,
	"xlsx": FormatSpreadsheet,
	"xls":  FormatSpreadsheet,
	"csv":  FormatCSV,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves an extension to its format class, or "" when the
// extension is not accepted.
func MapExtToFormat(ext string) DocumentFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}

// IsVisionFormat reports whether the format is handled by the vision
// extractor rather than the tabular one.
func IsVisionFormat(f DocumentFormat) bool {
	return f == FormatImage || f == FormatPDF
}
