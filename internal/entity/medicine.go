package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a stocked inventory row, keyed by (UserID, BatchID).
type Medicine struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  string `gorm:"size:128;uniqueIndex:idx_user_batch;index" json:"userId"`
	BatchID string `gorm:"size:128;uniqueIndex:idx_user_batch" json:"batchId"`
	Name    string `gorm:"size:256" json:"name"`

	Price    decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Quantity int             `json:"quantity"`

	// Descriptive metadata filled by the enricher for new medicines and
	// carried over unchanged on restock.
	Category             string `gorm:"size:128" json:"category"`
	Form                 string `gorm:"size:64" json:"form"`
	QuantityPerPack      string `gorm:"size:64" json:"quantityPerPack"`
	CoverDisease         string `json:"coverDisease"`
	Symptoms             string `json:"symptoms"`
	SideEffects          string `json:"sideEffects"`
	Instructions         string `json:"instructions"`
	LocalizedDescription string `json:"localizedDescription"`

	Manufacturer string `gorm:"size:256" json:"manufacturer"`
	ExpiryRaw    string `gorm:"size:64" json:"expiryRaw"` // as printed on the bill, unnormalized

	ImportSource string `gorm:"size:32" json:"importSource"`
	ImportID     string `gorm:"size:64;index" json:"importId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Medicine) TableName() string { return "medicines" }

// StockCounter is the per-user derived total-item counter. It is always
// recomputed from the medicines table, never incremented in place.
type StockCounter struct {
	UserID     string    `gorm:"primaryKey;size:128" json:"userId"`
	TotalItems int64     `json:"totalItems"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (StockCounter) TableName() string { return "stock_counters" }
