package gateways

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TopPay moves money to bank accounts. Requests carry an RSA signature:
// the non-empty parameters sorted by key, joined as k=v pairs with "&",
// then run through the PKCS#1 v1.5 private-key operation in 245-byte
// blocks and base64 encoded. Callbacks are verified with the platform's
// public key. Field ordering and the raw (unhashed) RSA operation are
// wire-compatibility requirements.
type TopPay struct {
	MerchantCode string
	PrivateKey   *rsa.PrivateKey
	PlatformKey  *rsa.PublicKey
	BaseURL      string
	NotifyURL    string
	Client       *http.Client
}

const (
	topPayStatusSuccess = "2"
	topPayStatusFailed  = "3"
)

func TopPayFromEnv() *TopPay {
	priv, err := parseRSAPrivateKey(os.Getenv("TOPPAY_PRIVATE_KEY"))
	if err != nil {
		priv = nil
	}
	pub, err := parseRSAPublicKey(os.Getenv("TOPPAY_PLATFORM_PUBLIC_KEY"))
	if err != nil {
		pub = nil
	}
	return &TopPay{
		MerchantCode: os.Getenv("TOPPAY_MERCHANT_CODE"),
		PrivateKey:   priv,
		PlatformKey:  pub,
		BaseURL:      os.Getenv("TOPPAY_BASE_URL"),
		NotifyURL:    os.Getenv("TOPPAY_PAYOUT_NOTIFY_URL"),
		Client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TopPay) Name() string { return NameTopPay }

func (t *TopPay) Initiate(ctx context.Context, req PayoutRequest) (*InitiateResult, error) {
	if t.PrivateKey == nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "merchant private key not configured"}
	}

	// TopPay accepts whole units only, minimum 100.
	amount := req.Amount.Truncate(0)
	if amount.LessThan(decimal.NewFromInt(100)) {
		return nil, &GatewayError{Gateway: t.Name(), Message: "amount below TopPay minimum of 100"}
	}

	bankCode := req.IFSCCode
	if bankCode == "" {
		bankCode = req.BankCode
	}
	accountName := req.AccountName
	if accountName == "" {
		accountName = "User"
	}

	params := map[string]string{
		"merchantCode": t.MerchantCode,
		"orderNum":     req.OrderNum,
		"bankCode":     strings.TrimSpace(bankCode),
		"bankAccount":  strings.TrimSpace(req.AccountNumber),
		"bankUsername": strings.TrimSpace(accountName),
		"orderAmount":  amount.String(),
		"callback":     t.NotifyURL,
		"timestamp":    strconv.FormatInt(time.Now().Unix(), 10),
	}

	sign, err := t.sign(buildSignString(params))
	if err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "failed to sign request", Err: err}
	}
	params["sign"] = sign

	raw, err := t.post(ctx, "/cash/newOrder", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Data    struct {
			OrderNum     string `json:"orderNum"`
			PlatOrderNum string `json:"platOrderNum"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "undecodable response", Raw: raw, Err: err}
	}
	if resp.Code != 0 {
		msg := resp.Message
		if msg == "" {
			msg = resp.Msg
		}
		if msg == "" {
			msg = fmt.Sprintf("payout rejected with code %d", resp.Code)
		}
		return nil, &GatewayError{Gateway: t.Name(), Message: msg, Raw: raw}
	}

	ref := resp.Data.PlatOrderNum
	if ref == "" {
		ref = req.OrderNum
	}
	return &InitiateResult{Accepted: true, GatewayReference: ref, RawResponse: raw}, nil
}

func (t *TopPay) VerifyCallback(values url.Values) (*CallbackStatus, error) {
	if t.PlatformKey == nil {
		return nil, &SignatureError{Gateway: t.Name(), Message: "platform public key not configured"}
	}

	sign := values.Get("platSign")
	if sign == "" {
		sign = values.Get("sign")
	}
	if sign == "" {
		return nil, &SignatureError{Gateway: t.Name(), Message: "missing signature"}
	}

	params := map[string]string{}
	for key := range values {
		if key == "platSign" || key == "sign" {
			continue
		}
		params[key] = values.Get(key)
	}

	sig, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return nil, &SignatureError{Gateway: t.Name(), Message: "signature is not base64"}
	}
	if err := t.verify(buildSignString(params), sig); err != nil {
		return nil, &SignatureError{Gateway: t.Name(), Message: "signature mismatch"}
	}

	orderNum := values.Get("orderNum")
	if orderNum == "" {
		return nil, &SignatureError{Gateway: t.Name(), Message: "missing orderNum"}
	}

	amount, _ := decimal.NewFromString(values.Get("money"))
	raw, _ := json.Marshal(params)

	status := CallbackStatus{Reference: orderNum, Amount: amount, Raw: raw}
	switch values.Get("status") {
	case topPayStatusSuccess:
		status.Result = ResultSucceeded
	case topPayStatusFailed:
		status.Result = ResultFailed
	default:
		status.Result = ResultPending
	}
	return &status, nil
}

func (t *TopPay) QueryPayout(ctx context.Context, orderNum string) (CallbackResult, error) {
	if t.PrivateKey == nil {
		return ResultPending, &GatewayError{Gateway: t.Name(), Message: "merchant private key not configured"}
	}

	params := map[string]string{
		"merchantCode": t.MerchantCode,
		"orderNum":     orderNum,
		"timestamp":    strconv.FormatInt(time.Now().Unix(), 10),
	}
	sign, err := t.sign(buildSignString(params))
	if err != nil {
		return ResultPending, &GatewayError{Gateway: t.Name(), Message: "failed to sign query", Err: err}
	}
	params["sign"] = sign

	raw, err := t.post(ctx, "/cash/queryOrder", params)
	if err != nil {
		return ResultPending, err
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ResultPending, &GatewayError{Gateway: t.Name(), Message: "undecodable query response", Raw: raw, Err: err}
	}
	if resp.Code != 0 {
		return ResultPending, &GatewayError{Gateway: t.Name(), Message: "query rejected", Raw: raw}
	}

	switch resp.Data.Status {
	case topPayStatusSuccess:
		return ResultSucceeded, nil
	case topPayStatusFailed:
		return ResultFailed, nil
	}
	return ResultPending, nil
}

func (t *TopPay) post(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "marshal request failed", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "create request failed", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "http request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Gateway: t.Name(), Message: "read response failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{
			Gateway: t.Name(),
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Raw:     raw,
		}
	}
	return raw, nil
}

// sign runs the raw PKCS#1 v1.5 private-key operation over the sign
// string, 245-byte blocks for a 2048-bit key, base64 encoded.
func (t *TopPay) sign(signString string) (string, error) {
	data := []byte(signString)
	maxBlock := t.PrivateKey.Size() - 11

	var out []byte
	for offset := 0; offset < len(data); offset += maxBlock {
		end := offset + maxBlock
		if end > len(data) {
			end = len(data)
		}
		block, err := rsa.SignPKCS1v15(rand.Reader, t.PrivateKey, crypto.Hash(0), data[offset:end])
		if err != nil {
			return "", err
		}
		out = append(out, block...)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// verify undoes the chunking sign applies: one key-size signature block
// per 245-byte slice of the sign string, every block checked and the
// whole string consumed.
func (t *TopPay) verify(signString string, sig []byte) error {
	data := []byte(signString)
	keySize := t.PlatformKey.Size()
	maxBlock := keySize - 11

	if len(sig) == 0 || len(sig)%keySize != 0 {
		return fmt.Errorf("signature length %d is not a multiple of the key size", len(sig))
	}

	offset := 0
	for start := 0; start < len(sig); start += keySize {
		end := offset + maxBlock
		if end > len(data) {
			end = len(data)
		}
		if err := rsa.VerifyPKCS1v15(t.PlatformKey, crypto.Hash(0), data[offset:end], sig[start:start+keySize]); err != nil {
			return err
		}
		offset = end
	}
	if offset != len(data) {
		return fmt.Errorf("signature does not cover the full sign string")
	}
	return nil
}

// buildSignString joins the sorted non-empty parameters as k=v pairs
// with "&". The sign fields themselves are never part of the string.
func buildSignString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if key == "sign" || key == "platSign" || value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	return strings.Join(pairs, "&")
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA private key")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func parseRSAPublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA public key")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}
