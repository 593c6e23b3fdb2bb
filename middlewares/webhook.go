package middlewares

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WebhookSourceCheck restricts the webhook group to the gateway IPs
// listed in WEBHOOK_ALLOW_IPS (comma separated). An empty list allows
// everything; signature verification still guards every payload.
func WebhookSourceCheck() fiber.Handler {
	allowed := map[string]bool{}
	for _, ip := range strings.Split(os.Getenv("WEBHOOK_ALLOW_IPS"), ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *fiber.Ctx) error {
		if len(allowed) == 0 || allowed[c.IP()] {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "FORBIDDEN_SOURCE",
		})
	}
}
