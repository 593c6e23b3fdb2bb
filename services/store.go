package services

import (
	"errors"
	"time"

	"luckpay/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxOps exposes the wallet and refund-log mutations available inside a
// locked transaction scope. Every call runs in the same database
// transaction that will persist the status change, so balance and status
// always move together.
type TxOps interface {
	Credit(userID uint, amount decimal.Decimal) error
	Debit(userID uint, amount decimal.Decimal) error
	// LogRefund records the compensating credit. It returns false when a
	// refund for the transaction already exists, in which case the
	// caller must not credit again.
	LogRefund(entry *models.RefundLog) (bool, error)
	GatewayConfig(name string) (*models.PaymentGateway, error)
}

// Store runs state transitions under SELECT ... FOR UPDATE on the
// transaction row. fn mutates the row; the store persists it when fn
// returns nil and rolls everything back otherwise.
type Store interface {
	Update(id uint, fn func(ops TxOps, trx *models.Transaction) error) (*models.Transaction, error)
	UpdateByReference(gateway, reference string, fn func(ops TxOps, trx *models.Transaction) error) (*models.Transaction, error)
	StuckProcessing(cutoff time.Time) ([]models.Transaction, error)
	RecordWebhook(event *models.WebhookEvent) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Update(id uint, fn func(ops TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	return s.update(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	}, fn)
}

func (s *GormStore) UpdateByReference(gateway, reference string, fn func(ops TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	return s.update(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("gateway = ? AND gateway_reference = ?", gateway, reference)
	}, fn)
}

func (s *GormStore) update(scope func(tx *gorm.DB) *gorm.DB, fn func(ops TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	var out models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var trx models.Transaction
		if err := scope(tx.Clauses(clause.Locking{Strength: "UPDATE"})).First(&trx).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := fn(&gormOps{tx: tx}, &trx); err != nil {
			return err
		}
		if err := tx.Save(&trx).Error; err != nil {
			return err
		}
		out = trx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GormStore) StuckProcessing(cutoff time.Time) ([]models.Transaction, error) {
	var stuck []models.Transaction
	err := s.DB.
		Where("status = ? AND updated_at < ?", models.StatusProcessing, cutoff).
		Order("updated_at ASC").
		Find(&stuck).Error
	return stuck, err
}

func (s *GormStore) RecordWebhook(event *models.WebhookEvent) error {
	return s.DB.Create(event).Error
}

type gormOps struct {
	tx *gorm.DB
}

func (o *gormOps) Credit(userID uint, amount decimal.Decimal) error {
	result := o.tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (o *gormOps) Debit(userID uint, amount decimal.Decimal) error {
	var user models.User
	if err := o.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if user.WalletBalance.LessThan(amount) {
		return ErrInsufficient
	}
	return o.tx.Model(&user).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount)).Error
}

func (o *gormOps) LogRefund(entry *models.RefundLog) (bool, error) {
	// The caller holds the row lock on the transaction, so concurrent
	// failure signals for the same id serialize here. The unique index
	// on transaction_id is the backstop.
	var existing models.RefundLog
	err := o.tx.Where("transaction_id = ?", entry.TransactionID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := o.tx.Create(entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (o *gormOps) GatewayConfig(name string) (*models.PaymentGateway, error) {
	var cfg models.PaymentGateway
	err := o.tx.Where("name = ?", name).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}
