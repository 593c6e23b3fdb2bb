package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GatewayStatusActive   = "active"
	GatewayStatusInactive = "inactive"
)

// PaymentGateway is the persisted configuration row for a payout
// provider: limits, fees and routing metadata. API tokens and signing
// keys are deliberately not columns here, they come from the
// environment.
type PaymentGateway struct {
	gorm.Model

	Name          string          `gorm:"size:32;uniqueIndex" json:"name"`
	Type          string          `gorm:"size:16" json:"type"`
	Status        string          `gorm:"size:16;default:active" json:"status"`
	MinAmount     decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"min_amount"`
	MaxAmount     decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"max_amount"`
	FeePercentage decimal.Decimal `gorm:"type:numeric(8,4);default:0" json:"fee_percentage"`
	FixedFee      decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"fixed_fee"`
	Description   string          `gorm:"size:255" json:"description"`
	MerchantID    string          `gorm:"size:64" json:"merch_id"`
	BaseURL       string          `gorm:"size:255" json:"base_url"`
}

func (g *PaymentGateway) IsActive() bool {
	return g.Status == GatewayStatusActive
}

// AllowsAmount reports whether amount is inside the configured limits.
// A zero MaxAmount means no upper bound.
func (g *PaymentGateway) AllowsAmount(amount decimal.Decimal) bool {
	if amount.LessThan(g.MinAmount) {
		return false
	}
	if !g.MaxAmount.IsZero() && amount.GreaterThan(g.MaxAmount) {
		return false
	}
	return true
}
