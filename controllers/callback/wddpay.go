package callback

import (
	"luckpay/gateways"

	"github.com/gofiber/fiber/v2"
)

// WDDPayCallback acknowledges with the lowercase literal the gateway
// expects; anything else counts as a delivery failure on their side.
func WDDPayCallback(c *fiber.Ctx) error {
	return handle(c, gateways.NameWDDPay, func(c *fiber.Ctx) error {
		return c.SendString("success")
	})
}
