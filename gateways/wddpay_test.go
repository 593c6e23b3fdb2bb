package gateways

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wddSign(secret string, params map[string]string) string {
	sum := md5.Sum([]byte(buildSignString(params) + "&key=" + secret))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func TestWDDPayVerifyCallback(t *testing.T) {
	g := &WDDPay{MerchantNo: "W300", Secret: "wdd-secret"}

	params := map[string]string{
		"merchantNo": "W300",
		"orderNo":    "TRX5-1700000000",
		"amount":     "250.00",
		"status":     "SUCCESS",
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("sign", wddSign("wdd-secret", params))

	status, err := g.VerifyCallback(values)
	require.NoError(t, err)
	assert.Equal(t, "TRX5-1700000000", status.Reference)
	assert.Equal(t, ResultSucceeded, status.Result)
	assert.True(t, status.Amount.Equal(decimal.NewFromFloat(250)))
}

func TestWDDPayVerifyCallbackLowercaseSignAccepted(t *testing.T) {
	g := &WDDPay{MerchantNo: "W300", Secret: "wdd-secret"}

	params := map[string]string{
		"orderNo": "TRX5",
		"amount":  "250.00",
		"status":  "FAIL",
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("sign", strings.ToLower(wddSign("wdd-secret", params)))

	status, err := g.VerifyCallback(values)
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, status.Result)
}

func TestWDDPayVerifyCallbackWrongSecret(t *testing.T) {
	g := &WDDPay{MerchantNo: "W300", Secret: "wdd-secret"}

	params := map[string]string{
		"orderNo": "TRX5",
		"amount":  "250.00",
		"status":  "SUCCESS",
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("sign", wddSign("other-secret", params))

	_, err := g.VerifyCallback(values)
	var sigErr *SignatureError
	assert.ErrorAs(t, err, &sigErr)
}
