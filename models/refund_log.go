package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundLog records the compensating credit applied when a payout fails
// after the wallet was debited. The unique index on TransactionID is the
// dedupe guard: a refund can be written at most once per transaction, no
// matter how many failure signals arrive.
type RefundLog struct {
	gorm.Model

	TransactionID uint            `gorm:"uniqueIndex" json:"transaction_id"`
	UserID        uint            `gorm:"index" json:"user_id"`
	RefID         string          `gorm:"size:64" json:"ref_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	Reason        string          `gorm:"size:255" json:"reason"`
}
