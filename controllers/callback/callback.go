package callback

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strconv"
	"strings"

	"luckpay/gateways"
	"luckpay/models"
	"luckpay/services"

	"github.com/gofiber/fiber/v2"
)

// Wired in routes.Setup before the server starts.
var (
	Payouts  *services.PayoutService
	Registry *gateways.Registry
)

// handle is the shared webhook contract: verify the signature before
// trusting any field, persist the payload, apply the transition, then
// acknowledge. A replayed terminal status is acknowledged without any
// mutation; a bad signature is rejected and never recorded as processed.
func handle(c *fiber.Ctx, gatewayName string, ack func(c *fiber.Ctx) error) error {
	adapter := Registry.Get(gatewayName)
	if adapter == nil {
		return c.Status(fiber.StatusNotFound).SendString("unknown gateway")
	}

	values, err := payloadValues(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("unreadable payload")
	}

	status, err := adapter.VerifyCallback(values)
	if err != nil {
		var sigErr *gateways.SignatureError
		if errors.As(err, &sigErr) {
			log.Printf("webhook %s rejected: %v", gatewayName, err)
			return c.Status(fiber.StatusBadRequest).SendString("invalid signature")
		}
		return c.Status(fiber.StatusBadRequest).SendString("invalid payload")
	}

	_, outcome, applyErr := Payouts.ApplyCallback(gatewayName, status)
	if applyErr != nil {
		if errors.Is(applyErr, services.ErrNotFound) {
			outcome = models.WebhookOrphaned
			log.Printf("webhook %s references unknown payout %s", gatewayName, status.Reference)
		} else {
			// Payload is still recorded below; the reconciler picks the
			// transaction up later.
			outcome = models.WebhookDeferred
			log.Printf("webhook %s for %s deferred: %v", gatewayName, status.Reference, applyErr)
		}
	}

	event := &models.WebhookEvent{
		Gateway:   gatewayName,
		Reference: status.Reference,
		Payload:   status.Raw,
		Outcome:   outcome,
	}
	if err := Payouts.Store.RecordWebhook(event); err != nil {
		// Not durably recorded, so no ack; the gateway will retry.
		log.Printf("webhook %s for %s could not be recorded: %v", gatewayName, status.Reference, err)
		return c.Status(fiber.StatusInternalServerError).SendString("try again")
	}

	return ack(c)
}

// payloadValues flattens a JSON or form-encoded callback body into
// url.Values so every adapter verifies the same shape.
func payloadValues(c *fiber.Ctx) (url.Values, error) {
	ct := strings.ToLower(c.Get("Content-Type"))
	if strings.Contains(ct, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()

		var payload map[string]any
		if err := dec.Decode(&payload); err != nil {
			return nil, err
		}

		values := url.Values{}
		for key, value := range payload {
			switch v := value.(type) {
			case string:
				values.Set(key, v)
			case json.Number:
				values.Set(key, v.String())
			case bool:
				values.Set(key, strconv.FormatBool(v))
			case nil:
			default:
				raw, _ := json.Marshal(v)
				values.Set(key, string(raw))
			}
		}
		return values, nil
	}
	return url.ParseQuery(string(c.Body()))
}
