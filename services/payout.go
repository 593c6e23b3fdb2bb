package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"luckpay/gateways"
	"luckpay/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutService owns every status transition of a money transaction.
// Wallet balance changes happen only here, always inside the database
// transaction that writes the status, and at most once per terminal
// transition.
type PayoutService struct {
	Store    Store
	Gateways *gateways.Registry
	Timeout  time.Duration
}

func NewPayoutService(store Store, registry *gateways.Registry) *PayoutService {
	return &PayoutService{
		Store:    store,
		Gateways: registry,
		Timeout:  30 * time.Second,
	}
}

// Reject moves a pending transaction to rejected. No funds have moved
// yet, so no wallet mutation.
func (s *PayoutService) Reject(id uint) (*models.Transaction, error) {
	return s.Store.Update(id, func(ops TxOps, trx *models.Transaction) error {
		if trx.Status != models.StatusPending {
			return ErrNotPending
		}
		trx.Status = models.StatusRejected
		trx.Remarks = "Rejected by admin"
		return nil
	})
}

// Approve drives the pending -> processing/completed transition.
//
// Deposits credit the wallet and complete in one database transaction.
// Bank withdrawals debit and complete in one database transaction.
// Gateway withdrawals debit, write processing and the chosen gateway,
// commit, and only then call the gateway. Any synchronous failure or
// timeout resolves to failed plus a refund before Approve returns.
func (s *PayoutService) Approve(ctx context.Context, id uint) (*models.Transaction, error) {
	trx, err := s.Store.Update(id, func(ops TxOps, trx *models.Transaction) error {
		if trx.Status != models.StatusPending {
			return ErrNotPending
		}
		if trx.Amount.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidAmount
		}

		if trx.Type == models.TypeDeposit {
			if err := ops.Credit(trx.UserID, trx.Amount); err != nil {
				return err
			}
			trx.Status = models.StatusCompleted
			trx.Remarks = "Deposit credited"
			return nil
		}

		route, err := gateways.Select(trx)
		if err != nil {
			return err
		}

		if route == gateways.NameBank {
			if err := ops.Debit(trx.UserID, trx.Amount); err != nil {
				return err
			}
			trx.Status = models.StatusCompleted
			trx.Remarks = "Bank withdrawal debited"
			return nil
		}

		cfg, err := ops.GatewayConfig(route)
		if err != nil {
			return err
		}
		if cfg != nil {
			if !cfg.IsActive() {
				return fmt.Errorf("%w: %s", ErrGatewayDisabled, route)
			}
			if !cfg.AllowsAmount(trx.Amount) {
				return fmt.Errorf("%w: %s", ErrAmountOutOfRange, route)
			}
		}

		if err := ops.Debit(trx.UserID, trx.Amount); err != nil {
			return err
		}
		trx.Status = models.StatusProcessing
		trx.Gateway = route
		trx.GatewayReference = fmt.Sprintf("%s-%d", trx.TransactionID, time.Now().UnixMilli())
		trx.Remarks = "Payout initiated via " + route
		return nil
	})
	if err != nil {
		return nil, err
	}

	if trx.Status != models.StatusProcessing {
		return trx, nil
	}

	// The row lock is released before the network round trip.
	adapter := s.Gateways.Get(trx.Gateway)
	if adapter == nil {
		return s.failPayout(trx.ID, "No adapter registered for "+trx.Gateway, nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	res, err := adapter.Initiate(callCtx, payoutRequest(trx))
	if err != nil {
		log.Printf("payout %s via %s failed: %v", trx.TransactionID, trx.Gateway, err)
		var gwErr *gateways.GatewayError
		var raw []byte
		if errors.As(err, &gwErr) {
			raw = gwErr.Raw
		}
		failed, failErr := s.failPayout(trx.ID, "Gateway payout failed, amount refunded", raw)
		if failErr != nil {
			return nil, failErr
		}
		return failed, err
	}

	return s.Store.Update(trx.ID, func(ops TxOps, trx *models.Transaction) error {
		// A callback can land before the synchronous response; never
		// regress a state it already finalized, and keep its terminal
		// payload over the stale initiate ack.
		if trx.Status == models.StatusProcessing {
			trx.PayoutResponse = res.RawResponse
			trx.Remarks = "Payout accepted by " + trx.Gateway + ", awaiting confirmation"
		}
		return nil
	})
}

// ApplyCallback performs the processing -> {completed, failed}
// transition for a verified webhook payload. Replays of a terminal
// status are acknowledged without touching anything.
func (s *PayoutService) ApplyCallback(gatewayName string, status *gateways.CallbackStatus) (*models.Transaction, string, error) {
	outcome := models.WebhookApplied
	trx, err := s.Store.UpdateByReference(gatewayName, status.Reference, func(ops TxOps, trx *models.Transaction) error {
		if trx.IsTerminal() {
			if (trx.Status == models.StatusCompleted && status.Result == gateways.ResultSucceeded) ||
				(trx.Status == models.StatusFailed && status.Result == gateways.ResultFailed) {
				outcome = models.WebhookReplayed
			} else {
				outcome = models.WebhookMismatch
				log.Printf("callback %s/%s reports %s but transaction is %s",
					gatewayName, status.Reference, status.Result, trx.Status)
			}
			return nil
		}

		if !status.Amount.IsZero() && !status.Amount.Equal(trx.Amount) {
			outcome = models.WebhookMismatch
			log.Printf("callback %s/%s amount %s does not match transaction amount %s",
				gatewayName, status.Reference, status.Amount, trx.Amount)
			return nil
		}

		switch status.Result {
		case gateways.ResultSucceeded:
			trx.Status = models.StatusCompleted
			trx.Remarks = "Gateway payout confirmed"
			trx.PayoutResponse = status.Raw
		case gateways.ResultFailed:
			if err := s.refund(ops, trx, "Gateway reported payout failed"); err != nil {
				return err
			}
			trx.Status = models.StatusFailed
			trx.Remarks = "Gateway payout failed, amount refunded"
			trx.PayoutResponse = status.Raw
		default:
			outcome = models.WebhookDeferred
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, models.WebhookOrphaned, err
		}
		return nil, "", err
	}
	return trx, outcome, nil
}

// failPayout resolves a transaction to failed with the compensating
// credit, applied at most once. Safe to call after a callback already
// finalized the row.
func (s *PayoutService) failPayout(id uint, remark string, raw []byte) (*models.Transaction, error) {
	return s.Store.Update(id, func(ops TxOps, trx *models.Transaction) error {
		if trx.IsTerminal() {
			return nil
		}
		if trx.Status == models.StatusProcessing {
			if err := s.refund(ops, trx, remark); err != nil {
				return err
			}
		}
		trx.Status = models.StatusFailed
		trx.Remarks = remark
		if raw != nil {
			trx.PayoutResponse = raw
		}
		return nil
	})
}

// refund credits back the debited amount exactly once per transaction,
// gated by the refund log.
func (s *PayoutService) refund(ops TxOps, trx *models.Transaction, reason string) error {
	logged, err := ops.LogRefund(&models.RefundLog{
		TransactionID: trx.ID,
		UserID:        trx.UserID,
		RefID:         uuid.New().String(),
		Amount:        trx.Amount,
		Reason:        reason,
	})
	if err != nil {
		return err
	}
	if !logged {
		log.Printf("refund for transaction %d already applied, skipping credit", trx.ID)
		return nil
	}
	return ops.Credit(trx.UserID, trx.Amount)
}

func payoutRequest(trx *models.Transaction) gateways.PayoutRequest {
	return gateways.PayoutRequest{
		OrderNum:      trx.GatewayReference,
		Amount:        trx.Amount,
		AccountName:   trx.AccountName,
		AccountNumber: trx.AccountNumber,
		IFSCCode:      trx.IFSCCode,
		BankCode:      trx.BankCode,
		UPIID:         trx.UPIID,
	}
}
