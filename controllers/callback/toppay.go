package callback

import (
	"luckpay/gateways"

	"github.com/gofiber/fiber/v2"
)

// TopPayCallback receives the asynchronous payout result. TopPay stops
// retrying once it reads the literal string SUCCESS.
func TopPayCallback(c *fiber.Ctx) error {
	return handle(c, gateways.NameTopPay, func(c *fiber.Ctx) error {
		return c.SendString("SUCCESS")
	})
}
