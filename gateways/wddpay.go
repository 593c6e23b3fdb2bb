package gateways

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
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

// WDDPay signs form-encoded requests with an uppercase MD5 digest of the
// sorted non-empty k=v pairs joined with "&", suffixed with
// "&key=SECRET". Same scheme both directions.
type WDDPay struct {
	MerchantNo string
	Secret     string
	BaseURL    string
	NotifyURL  string
	Client     *http.Client
}

const (
	wddPayStatusSuccess = "SUCCESS"
	wddPayStatusFailed  = "FAIL"
)

func WDDPayFromEnv() *WDDPay {
	return &WDDPay{
		MerchantNo: os.Getenv("WDDPAY_MERCHANT_NO"),
		Secret:     os.Getenv("WDDPAY_SECRET"),
		BaseURL:    os.Getenv("WDDPAY_BASE_URL"),
		NotifyURL:  os.Getenv("WDDPAY_NOTIFY_URL"),
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *WDDPay) Name() string { return NameWDDPay }

func (g *WDDPay) Initiate(ctx context.Context, req PayoutRequest) (*InitiateResult, error) {
	accountName := req.AccountName
	if accountName == "" {
		accountName = "User"
	}

	params := map[string]string{
		"merchantNo":  g.MerchantNo,
		"orderNo":     req.OrderNum,
		"amount":      req.Amount.StringFixed(2),
		"bankCode":    req.BankCode,
		"ifscCode":    req.IFSCCode,
		"accountNo":   strings.TrimSpace(req.AccountNumber),
		"accountName": strings.TrimSpace(accountName),
		"notifyUrl":   g.NotifyURL,
	}
	params["sign"] = g.md5Sign(params)

	form := url.Values{}
	for key, value := range params {
		if value != "" {
			form.Set(key, value)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/api/payout/create",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "create request failed", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

	var result struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			PlatOrderNo string `json:"platOrderNo"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &GatewayError{Gateway: g.Name(), Message: "undecodable response", Raw: raw, Err: err}
	}
	if result.Code != "0000" {
		msg := result.Message
		if msg == "" {
			msg = "payout rejected with code " + result.Code
		}
		return nil, &GatewayError{Gateway: g.Name(), Message: msg, Raw: raw}
	}

	ref := result.Data.PlatOrderNo
	if ref == "" {
		ref = req.OrderNum
	}
	return &InitiateResult{Accepted: true, GatewayReference: ref, RawResponse: raw}, nil
}

func (g *WDDPay) VerifyCallback(values url.Values) (*CallbackStatus, error) {
	sign := values.Get("sign")
	if sign == "" {
		return nil, &SignatureError{Gateway: g.Name(), Message: "missing signature"}
	}

	params := map[string]string{}
	for key := range values {
		if key == "sign" {
			continue
		}
		params[key] = values.Get(key)
	}

	expected := g.md5Sign(params)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(sign))) != 1 {
		return nil, &SignatureError{Gateway: g.Name(), Message: "signature mismatch"}
	}

	orderNo := values.Get("orderNo")
	if orderNo == "" {
		return nil, &SignatureError{Gateway: g.Name(), Message: "missing orderNo"}
	}

	amount, _ := decimal.NewFromString(values.Get("amount"))
	raw, _ := json.Marshal(params)

	status := CallbackStatus{Reference: orderNo, Amount: amount, Raw: raw}
	switch strings.ToUpper(values.Get("status")) {
	case wddPayStatusSuccess:
		status.Result = ResultSucceeded
	case wddPayStatusFailed:
		status.Result = ResultFailed
	default:
		status.Result = ResultPending
	}
	return &status, nil
}

// md5Sign hashes the sorted non-empty parameters, the secret appended as
// a trailing key pair, uppercase hex.
func (g *WDDPay) md5Sign(params map[string]string) string {
	signString := buildSignString(params) + "&key=" + g.Secret
	sum := md5.Sum([]byte(signString))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
