package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transaction statuses. Status is the authoritative state of a payout:
// pending -> processing -> {completed, failed}, rejected reachable only
// from pending. completed, failed and rejected are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRejected   = "rejected"
)

const (
	TypeDeposit  = "deposit"
	TypeWithdraw = "withdraw"
)

type Transaction struct {
	gorm.Model

	TransactionID string          `gorm:"size:64;uniqueIndex" json:"transaction_id"`
	UserID        uint            `gorm:"index" json:"user_id"`
	Type          string          `gorm:"size:16;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	PaymentMethod string          `gorm:"size:32" json:"payment_method"`
	Status        string          `gorm:"size:16;index" json:"status"`

	// Gateway is fixed once at the pending -> processing boundary and
	// never re-derived afterwards.
	Gateway          string `gorm:"size:32;index" json:"gateway"`
	GatewayReference string `gorm:"size:64;index" json:"gateway_reference"`

	UPIID         string `gorm:"column:upi_id;size:64" json:"upi_id"`
	AccountName   string `gorm:"size:64" json:"account_name"`
	AccountNumber string `gorm:"size:32" json:"account_number"`
	IFSCCode      string `gorm:"column:ifsc_code;size:16" json:"ifsc_code"`
	BankCode      string `gorm:"size:16" json:"bank_code"`

	Remarks        string         `gorm:"size:255" json:"remarks"`
	PayoutResponse datatypes.JSON `json:"payout_response"`
}

func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusRejected:
		return true
	}
	return false
}

func (t *Transaction) HasBankDetails() bool {
	return t.AccountNumber != "" && (t.IFSCCode != "" || t.BankCode != "")
}

func (t *Transaction) HasUPIDetails() bool {
	return t.UPIID != ""
}
