package callback_test

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"luckpay/controllers/callback"
	"luckpay/gateways"
	"luckpay/models"
	"luckpay/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const wddSecret = "callback-test-secret"

type fakeStore struct {
	trx      *models.Transaction
	balance  decimal.Decimal
	refunds  int
	webhooks []*models.WebhookEvent
}

func (s *fakeStore) Update(id uint, fn func(ops services.TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	if s.trx == nil || s.trx.ID != id {
		return nil, services.ErrNotFound
	}
	return s.apply(fn)
}

func (s *fakeStore) UpdateByReference(gateway, reference string, fn func(ops services.TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	if s.trx == nil || s.trx.Gateway != gateway || s.trx.GatewayReference != reference {
		return nil, services.ErrNotFound
	}
	return s.apply(fn)
}

func (s *fakeStore) apply(fn func(ops services.TxOps, trx *models.Transaction) error) (*models.Transaction, error) {
	work := *s.trx
	if err := fn(s, &work); err != nil {
		return nil, err
	}
	*s.trx = work
	out := work
	return &out, nil
}

func (s *fakeStore) StuckProcessing(time.Time) ([]models.Transaction, error) { return nil, nil }

func (s *fakeStore) RecordWebhook(event *models.WebhookEvent) error {
	s.webhooks = append(s.webhooks, event)
	return nil
}

func (s *fakeStore) Credit(_ uint, amount decimal.Decimal) error {
	s.balance = s.balance.Add(amount)
	return nil
}

func (s *fakeStore) Debit(_ uint, amount decimal.Decimal) error {
	s.balance = s.balance.Sub(amount)
	return nil
}

func (s *fakeStore) LogRefund(*models.RefundLog) (bool, error) {
	if s.refunds > 0 {
		return false, nil
	}
	s.refunds++
	return true, nil
}

func (s *fakeStore) GatewayConfig(string) (*models.PaymentGateway, error) { return nil, nil }

// newWebhookApp wires a fiber app the same way routes.Setup does, with a
// processing payout that was already debited from a 1000 balance.
func newWebhookApp(t *testing.T) (*fiber.App, *fakeStore) {
	t.Helper()

	store := &fakeStore{
		balance: decimal.NewFromInt(500),
		trx: &models.Transaction{
			Model:            gorm.Model{ID: 7, UpdatedAt: time.Now()},
			TransactionID:    "TRX-7",
			UserID:           1,
			Type:             models.TypeWithdraw,
			Amount:           decimal.NewFromInt(500),
			Status:           models.StatusProcessing,
			Gateway:          gateways.NameWDDPay,
			GatewayReference: "TRX-7-1700000000000",
		},
	}

	registry := gateways.NewRegistry()
	registry.Register(&gateways.WDDPay{MerchantNo: "M500", Secret: wddSecret})

	callback.Payouts = services.NewPayoutService(store, registry)
	callback.Registry = registry

	app := fiber.New()
	app.Post("/callback/wddpay", callback.WDDPayCallback)
	return app, store
}

func signedForm(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := md5.Sum([]byte(strings.Join(pairs, "&") + "&key=" + secret))

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("sign", strings.ToUpper(hex.EncodeToString(sum[:])))
	return form.Encode()
}

func postCallback(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback/wddpay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestWebhookInvalidSignatureRejected(t *testing.T) {
	app, store := newWebhookApp(t)

	body := signedForm(map[string]string{
		"orderNo": "TRX-7-1700000000000",
		"amount":  "500.00",
		"status":  "FAIL",
	}, "wrong-secret")

	resp := postCallback(t, app, body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.StatusProcessing, store.trx.Status)
	assert.True(t, store.balance.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, store.webhooks, "unverified payloads are never recorded")
}

func TestWebhookFailureRefundsAndAcks(t *testing.T) {
	app, store := newWebhookApp(t)

	body := signedForm(map[string]string{
		"orderNo": "TRX-7-1700000000000",
		"amount":  "500.00",
		"status":  "FAIL",
	}, wddSecret)

	resp := postCallback(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	ack, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "success", string(ack))

	assert.Equal(t, models.StatusFailed, store.trx.Status)
	assert.True(t, store.balance.Equal(decimal.NewFromInt(1000)), "refund restores the debit")
	assert.Equal(t, 1, store.refunds)

	require.Len(t, store.webhooks, 1)
	assert.Equal(t, models.WebhookApplied, store.webhooks[0].Outcome)
	assert.Equal(t, gateways.NameWDDPay, store.webhooks[0].Gateway)
}

func TestWebhookReplayAcksWithoutSecondRefund(t *testing.T) {
	app, store := newWebhookApp(t)

	body := signedForm(map[string]string{
		"orderNo": "TRX-7-1700000000000",
		"amount":  "500.00",
		"status":  "FAIL",
	}, wddSecret)

	resp := postCallback(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postCallback(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	ack, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "success", string(ack))

	assert.Equal(t, 1, store.refunds)
	assert.True(t, store.balance.Equal(decimal.NewFromInt(1000)))

	require.Len(t, store.webhooks, 2)
	assert.Equal(t, models.WebhookReplayed, store.webhooks[1].Outcome)
}

func TestWebhookSuccessCompletesPayout(t *testing.T) {
	app, store := newWebhookApp(t)

	body := signedForm(map[string]string{
		"orderNo": "TRX-7-1700000000000",
		"amount":  "500.00",
		"status":  "SUCCESS",
	}, wddSecret)

	resp := postCallback(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCompleted, store.trx.Status)
	assert.True(t, store.balance.Equal(decimal.NewFromInt(500)))
	assert.Zero(t, store.refunds)
}

func TestWebhookUnknownOrderRecordsOrphan(t *testing.T) {
	app, store := newWebhookApp(t)

	body := signedForm(map[string]string{
		"orderNo": "TRX-999",
		"amount":  "500.00",
		"status":  "SUCCESS",
	}, wddSecret)

	resp := postCallback(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusProcessing, store.trx.Status)

	require.Len(t, store.webhooks, 1)
	assert.Equal(t, models.WebhookOrphaned, store.webhooks[0].Outcome)
}
