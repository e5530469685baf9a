package entity

import (
	"time"
)

// Reversible operation tags. An ImportTransaction is an arena of these;
// rollback replays them instead of re-deriving reversal from the draft.
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// ReversibleOp captures enough state to undo one committed write. The
// prior fields must cover every column the commit's update path touches,
// or rollback leaves residue.
type ReversibleOp struct {
	Op         string `json:"op"`
	MedicineID uint   `json:"medicineId"`
	BatchID    string `json:"batchId"`

	// Prior state, set for updates only.
	PriorQuantity     int    `json:"priorQuantity,omitempty"`
	PriorPrice        string `json:"priorPrice,omitempty"` // decimal string
	PriorSource       string `json:"priorSource,omitempty"`
	PriorExpiry       string `json:"priorExpiry,omitempty"`
	PriorManufacturer string `json:"priorManufacturer,omitempty"`
	PriorImportID     string `json:"priorImportId,omitempty"`
}

// ImportTransaction is the persisted record of a committed draft. Created
// atomically with the commit write; marked consumed by a successful
// rollback so a second rollback cannot double-reverse state.
type ImportTransaction struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ImportID   string `gorm:"size:64;uniqueIndex" json:"importId"`
	UserID     string `gorm:"size:128;index" json:"userId"`
	SourceFile string `gorm:"size:256" json:"sourceFile"`

	// Operations is the JSON-serialized []ReversibleOp.
	Operations []byte `gorm:"type:jsonb" json:"-"`

	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (ImportTransaction) TableName() string { return "import_transactions" }
