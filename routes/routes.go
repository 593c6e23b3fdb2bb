package routes

import (
	"luckpay/controllers/callback"
	"luckpay/controllers/gatewayconfig"
	"luckpay/controllers/transactions"
	"luckpay/gateways"
	"luckpay/middlewares"
	"luckpay/services"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, svc *services.PayoutService, registry *gateways.Registry) {
	transactions.Payouts = svc
	callback.Payouts = svc
	callback.Registry = registry

	trx := app.Group("/api/transactions")
	trx.Get("/", transactions.ListTransactions)
	trx.Get("/count", transactions.PendingCount)
	trx.Get("/:id", transactions.GetTransaction)
	trx.Put("/:id/status", transactions.UpdateStatus)

	gw := app.Group("/api/payment-gateways")
	gw.Get("/", gatewayconfig.ListGateways)
	gw.Get("/names", gatewayconfig.GatewayNames)
	gw.Post("/", gatewayconfig.CreateGateway)
	gw.Put("/:id", gatewayconfig.UpdateGateway)
	gw.Put("/:id/status", gatewayconfig.UpdateGatewayStatus)
	gw.Delete("/:id", gatewayconfig.DeleteGateway)

	hooks := app.Group("/callback", middlewares.WebhookSourceCheck())
	hooks.Post("/toppay", callback.TopPayCallback)
	hooks.Post("/cloudpay", callback.CloudPayCallback)
	hooks.Post("/wddpay", callback.WDDPayCallback)
}
