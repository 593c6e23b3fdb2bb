package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CloudPay handles UPI payouts. Every request carries an HMAC-SHA256 hex
// digest of a pipe-delimited canonical string in the X-Verify header.
// The canonical field order is fixed by the gateway and must not change.
type CloudPay struct {
	MerchantID string
	APIToken   string
	BaseURL    string
	Client     *http.Client
}

const (
	cloudPayStatusSuccess = "1"
	cloudPayStatusFailed  = "2"
)

func CloudPayFromEnv() *CloudPay {
	baseURL := os.Getenv("CLOUDPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.cloudpay.space"
	}
	return &CloudPay{
		MerchantID: os.Getenv("CLOUDPAY_MERCHANT_ID"),
		APIToken:   os.Getenv("CLOUDPAY_API_TOKEN"),
		BaseURL:    baseURL,
		Client:     &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *CloudPay) Name() string { return NameCloudPay }

func (g *CloudPay) Initiate(ctx context.Context, req PayoutRequest) (*InitiateResult, error) {
	method := "BANK"
	accNo := strings.TrimSpace(req.AccountNumber)
	if req.UPIID != "" {
		method = "UPI"
		accNo = strings.TrimSpace(req.UPIID)
	}
	accountName := req.AccountName
	if accountName == "" {
		accountName = "User"
	}

	// CloudPay takes whole units only.
	amount := req.Amount.Truncate(0)

	body := map[string]any{
		"merch_id":       g.MerchantID,
		"order_ref":      req.OrderNum,
		"amount":         amount.IntPart(),
		"account_name":   accountName,
		"payment_method": method,
		"acc_no":         accNo,
		"account_type":   "PERSONAL_BANK",
	}

	canonical := fmt.Sprintf("merch_id=%s|amount=%d|acc_no=%s|account_name=%s|payment_method=%s|account_type=%s",
		g.MerchantID, amount.IntPart(), accNo, accountName, method, "PERSONAL_BANK")

	raw, err := g.post(ctx, "/payout/php", body, g.hmacHex(canonical))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "undecodable response", Raw: raw, Err: err}
	}
	if !resp.Status {
		msg := resp.Message
		if msg == "" {
			msg = "payout rejected"
		}
		return nil, &GatewayError{Gateway: g.Name(), Message: msg, Raw: raw}
	}

	ref := resp.Data.OrderID
	if ref == "" {
		ref = req.OrderNum
	}
	return &InitiateResult{Accepted: true, GatewayReference: ref, RawResponse: raw}, nil
}

func (g *CloudPay) VerifyCallback(values url.Values) (*CallbackStatus, error) {
	signature := values.Get("signature")
	if signature == "" {
		return nil, &SignatureError{Gateway: g.Name(), Message: "missing signature"}
	}

	reference := values.Get("order_reference")
	statusCode := values.Get("status_code")
	amountStr := values.Get("amount")
	if reference == "" || statusCode == "" {
		return nil, &SignatureError{Gateway: g.Name(), Message: "missing required fields"}
	}

	canonical := fmt.Sprintf("order_reference=%s|status_code=%s|amount=%s", reference, statusCode, amountStr)
	expected := g.hmacHex(canonical)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return nil, &SignatureError{Gateway: g.Name(), Message: "signature mismatch"}
	}

	amount, _ := decimal.NewFromString(amountStr)
	raw, _ := json.Marshal(map[string]string{
		"order_reference": reference,
		"status_code":     statusCode,
		"amount":          amountStr,
	})

	status := CallbackStatus{Reference: reference, Amount: amount, Raw: raw}
	switch statusCode {
	case cloudPayStatusSuccess:
		status.Result = ResultSucceeded
	case cloudPayStatusFailed:
		status.Result = ResultFailed
	default:
		status.Result = ResultPending
	}
	return &status, nil
}

func (g *CloudPay) QueryPayout(ctx context.Context, orderNum string) (CallbackResult, error) {
	body := map[string]any{
		"merch_id":  g.MerchantID,
		"order_ref": orderNum,
	}
	canonical := fmt.Sprintf("merch_id=%s|order_ref=%s", g.MerchantID, orderNum)

	raw, err := g.post(ctx, "/payout/status", body, g.hmacHex(canonical))
	if err != nil {
		return ResultPending, err
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			StatusCode string `json:"status_code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ResultPending, &GatewayError{Gateway: g.Name(), Message: "undecodable query response", Raw: raw, Err: err}
	}
	if !resp.Status {
		return ResultPending, &GatewayError{Gateway: g.Name(), Message: "query rejected", Raw: raw}
	}

	switch resp.Data.StatusCode {
	case cloudPayStatusSuccess:
		return ResultSucceeded, nil
	case cloudPayStatusFailed:
		return ResultFailed, nil
	}
	return ResultPending, nil
}

func (g *CloudPay) post(ctx context.Context, path string, body map[string]any, sign string) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "marshal request failed", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "create request failed", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Verify", sign)

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "http request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "read response failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{
			Gateway: g.Name(),
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Raw:     raw,
		}
	}
	return raw, nil
}

func (g *CloudPay) hmacHex(canonical string) string {
	mac := hmac.New(sha256.New, []byte(g.APIToken))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
