package services

import (
	"context"
	"log"
	"time"

	"luckpay/gateways"
	"luckpay/models"
)

// ReconcileStuck resolves transactions left in processing beyond maxAge.
// Gateways that expose a status endpoint are asked for the final payout
// state; the answer drives the same completed/failed transitions a
// webhook would. Gateways without one are only logged, never guessed at.
func (s *PayoutService) ReconcileStuck(ctx context.Context, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	stuck, err := s.Store.StuckProcessing(cutoff)
	if err != nil {
		log.Printf("reconciler: failed to list stuck transactions: %v", err)
		return
	}

	for _, trx := range stuck {
		adapter := s.Gateways.Get(trx.Gateway)
		querier, ok := adapter.(gateways.StatusQuerier)
		if !ok {
			log.Printf("reconciler: %s stuck in processing, gateway %s has no status endpoint",
				trx.TransactionID, trx.Gateway)
			continue
		}

		queryCtx, cancel := context.WithTimeout(ctx, s.Timeout)
		result, err := querier.QueryPayout(queryCtx, trx.GatewayReference)
		cancel()
		if err != nil {
			log.Printf("reconciler: status query for %s failed: %v", trx.TransactionID, err)
			continue
		}

		switch result {
		case gateways.ResultSucceeded:
			if _, err := s.completePayout(trx.ID); err != nil {
				log.Printf("reconciler: failed to complete %s: %v", trx.TransactionID, err)
			}
		case gateways.ResultFailed:
			if _, err := s.failPayout(trx.ID, "Gateway reported payout failed on reconcile", nil); err != nil {
				log.Printf("reconciler: failed to fail %s: %v", trx.TransactionID, err)
			}
		default:
			log.Printf("reconciler: %s still pending at %s", trx.TransactionID, trx.Gateway)
		}
	}
}

func (s *PayoutService) completePayout(id uint) (*models.Transaction, error) {
	return s.Store.Update(id, func(ops TxOps, trx *models.Transaction) error {
		if trx.Status != models.StatusProcessing {
			return nil
		}
		trx.Status = models.StatusCompleted
		trx.Remarks = "Gateway payout confirmed on reconcile"
		return nil
	})
}
