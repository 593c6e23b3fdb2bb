package transactions

import (
	"strings"

	"luckpay/database"
	"luckpay/helpers"
	"luckpay/models"

	"github.com/gofiber/fiber/v2"
)

type transactionView struct {
	models.Transaction
	MethodLabel string `json:"method_label"`
}

// ListTransactions returns the reconciliation panel rows, newest first,
// optionally filtered by type and status.
func ListTransactions(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Transaction{})

	if trxType := c.Query("type"); trxType != "" {
		query = query.Where("type = ?", trxType)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.Transaction
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error fetching transactions")
	}

	views := make([]transactionView, 0, len(rows))
	for _, trx := range rows {
		views = append(views, transactionView{Transaction: trx, MethodLabel: methodLabel(&trx)})
	}
	return c.JSON(views)
}

func GetTransaction(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid transaction id")
	}

	var trx models.Transaction
	if err := database.DB.First(&trx, id).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusNotFound, "Transaction not found")
	}
	return c.JSON(trx)
}

func PendingCount(c *fiber.Ctx) error {
	var count int64
	if err := database.DB.Model(&models.Transaction{}).
		Where("status = ?", models.StatusPending).
		Count(&count).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error fetching transaction count")
	}
	return c.JSON(fiber.Map{"count": count})
}

// methodLabel normalizes the stored payment method to the label the
// admin panel displays.
func methodLabel(trx *models.Transaction) string {
	method := strings.ToLower(trx.PaymentMethod)

	if trx.Type == models.TypeWithdraw {
		switch {
		case strings.Contains(method, "toppay"):
			return "TopPay"
		case strings.Contains(method, "cloudpay"):
			return "CloudPay"
		case strings.Contains(method, "wddpay"):
			return "WDDPay"
		case strings.Contains(method, "upi"), trx.HasUPIDetails():
			return "UPI"
		case strings.Contains(method, "bank"), trx.HasBankDetails():
			return "Bank Transfer"
		}
		return "Withdraw"
	}
	return "Bank Transfer"
}
