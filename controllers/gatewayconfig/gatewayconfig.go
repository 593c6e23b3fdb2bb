package gatewayconfig

import (
	"errors"

	"luckpay/database"
	"luckpay/helpers"
	"luckpay/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gatewayRequest struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	FeePercentage decimal.Decimal `json:"fee_percentage"`
	FixedFee      decimal.Decimal `json:"fixed_fee"`
	Description   string          `json:"description"`
	MerchantID    string          `json:"merch_id"`
	BaseURL       string          `json:"base_url"`
}

func ListGateways(c *fiber.Ctx) error {
	var rows []models.PaymentGateway
	if err := database.DB.Order("id").Find(&rows).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error fetching payment gateways")
	}
	return c.JSON(rows)
}

func GatewayNames(c *fiber.Ctx) error {
	var names []string
	if err := database.DB.Model(&models.PaymentGateway{}).
		Order("name").Pluck("name", &names).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error fetching gateway names")
	}
	return c.JSON(names)
}

func CreateGateway(c *fiber.Ctx) error {
	var req gatewayRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Gateway name is required")
	}
	if req.Status == "" {
		req.Status = models.GatewayStatusActive
	}

	row := models.PaymentGateway{
		Name:          req.Name,
		Type:          req.Type,
		Status:        req.Status,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
		FeePercentage: req.FeePercentage,
		FixedFee:      req.FixedFee,
		Description:   req.Description,
		MerchantID:    req.MerchantID,
		BaseURL:       req.BaseURL,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helpers.JSONError(c, fiber.StatusConflict, "Gateway already exists")
		}
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error creating payment gateway")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment gateway created successfully",
		"id":      row.ID,
	})
}

func UpdateGateway(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid gateway id")
	}

	var req gatewayRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result := database.DB.Model(&models.PaymentGateway{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":           req.Name,
			"type":           req.Type,
			"status":         req.Status,
			"min_amount":     req.MinAmount,
			"max_amount":     req.MaxAmount,
			"fee_percentage": req.FeePercentage,
			"fixed_fee":      req.FixedFee,
			"description":    req.Description,
			"merchant_id":    req.MerchantID,
			"base_url":       req.BaseURL,
		})
	if result.Error != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error updating payment gateway")
	}
	if result.RowsAffected == 0 {
		return helpers.JSONError(c, fiber.StatusNotFound, "Payment gateway not found")
	}
	return helpers.JSONSuccess(c, "Payment gateway updated successfully", nil)
}

func UpdateGatewayStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid gateway id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status != models.GatewayStatusActive && req.Status != models.GatewayStatusInactive {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid status value")
	}

	result := database.DB.Model(&models.PaymentGateway{}).
		Where("id = ?", id).
		Update("status", req.Status)
	if result.Error != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error updating gateway status")
	}
	if result.RowsAffected == 0 {
		return helpers.JSONError(c, fiber.StatusNotFound, "Payment gateway not found")
	}
	return helpers.JSONSuccess(c, "Gateway status updated to "+req.Status, nil)
}

func DeleteGateway(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid gateway id")
	}

	result := database.DB.Delete(&models.PaymentGateway{}, id)
	if result.Error != nil {
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Error deleting payment gateway")
	}
	if result.RowsAffected == 0 {
		return helpers.JSONError(c, fiber.StatusNotFound, "Payment gateway not found")
	}
	return helpers.JSONSuccess(c, "Payment gateway deleted successfully", nil)
}
