package gateways

import (
	"errors"
	"strings"

	"luckpay/models"
)

const (
	NameTopPay   = "toppay"
	NameCloudPay = "cloudpay"
	NameWDDPay   = "wddpay"

	// NameBank is the internal bank-transfer path: no external call,
	// same-transaction wallet mutation and immediate completion.
	NameBank = "bank"
)

var ErrNoGateway = errors.New("no payout gateway matches this transaction")

// Select resolves which payout route handles a transaction. It is a pure
// function of the declared payment method and the presence of bank vs
// UPI fields, evaluated exactly once when the admin approves and stored
// on the row. Policy: an explicit gateway name always wins; the generic
// "gateway" method routes UPI payouts to CloudPay and bank payouts to
// TopPay; WDDPay handles payouts only when named explicitly.
func Select(trx *models.Transaction) (string, error) {
	method := strings.ToLower(strings.TrimSpace(trx.PaymentMethod))

	switch method {
	case NameTopPay, NameCloudPay, NameWDDPay:
		return method, nil
	case NameBank, "bank transfer", "bank_transfer":
		return NameBank, nil
	case "gateway", "upi", "":
		if trx.HasUPIDetails() {
			return NameCloudPay, nil
		}
		if trx.HasBankDetails() {
			return NameTopPay, nil
		}
		return "", ErrNoGateway
	}

	return "", ErrNoGateway
}
