package callback

import (
	"luckpay/gateways"

	"github.com/gofiber/fiber/v2"
)

func CloudPayCallback(c *fiber.Ctx) error {
	return handle(c, gateways.NameCloudPay, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true})
	})
}
