package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	Name          string          `gorm:"size:64" json:"name"`
	Mobile        string          `gorm:"size:20;index" json:"mobile"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"wallet_balance"`
	Currency      string          `gorm:"size:8;default:INR" json:"currency"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`

	Transactions []Transaction `gorm:"foreignKey:UserID"`
}
