package transactions

import (
	"errors"

	"luckpay/gateways"
	"luckpay/helpers"
	"luckpay/services"

	"github.com/gofiber/fiber/v2"
)

// Payouts is wired in routes.Setup before the server starts.
var Payouts *services.PayoutService

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /:id/status. "completed" approves the
// transaction and, for gateway withdrawals, triggers the payout call;
// "rejected" closes it without moving funds.
func UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid transaction id")
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	switch req.Status {
	case "completed", "approved":
		trx, err := Payouts.Approve(c.UserContext(), uint(id))
		if err != nil {
			return approveError(c, err)
		}
		return helpers.JSONSuccess(c, "Transaction "+trx.Status, trx)
	case "rejected", "reject":
		trx, err := Payouts.Reject(uint(id))
		if err != nil {
			return approveError(c, err)
		}
		return helpers.JSONSuccess(c, "Transaction rejected successfully", trx)
	}

	return helpers.JSONError(c, fiber.StatusBadRequest, "Valid status (completed/rejected) is required")
}

func approveError(c *fiber.Ctx, err error) error {
	var gwErr *gateways.GatewayError
	switch {
	case errors.As(err, &gwErr):
		// The refund already ran; tell the admin the payout leg failed.
		return helpers.JSONError(c, fiber.StatusBadGateway, "Payout failed, amount refunded to wallet")
	case errors.Is(err, services.ErrNotFound):
		return helpers.JSONError(c, fiber.StatusNotFound, "Transaction not found")
	case errors.Is(err, services.ErrNotPending):
		return helpers.JSONError(c, fiber.StatusBadRequest, "Transaction is not pending")
	case errors.Is(err, services.ErrInsufficient):
		return helpers.JSONError(c, fiber.StatusBadRequest, "Insufficient wallet balance")
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrGatewayDisabled),
		errors.Is(err, services.ErrAmountOutOfRange),
		errors.Is(err, gateways.ErrNoGateway):
		return helpers.JSONError(c, fiber.StatusBadRequest, err.Error())
	}
	return helpers.JSONError(c, fiber.StatusInternalServerError, "Error updating transaction status")
}
