package constants

// ImportSource marks how a medicine row entered the store.
// Stable values (store these exact strings in DB).
const (
	SourceImportNew     = "import:new"     // inserted by a committed import
	SourceImportUpdated = "import:updated" // restocked by a committed import
	SourceManual        = "manual"         // entered by hand, outside the pipeline
)
