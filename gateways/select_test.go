package gateways_test

import (
	"testing"

	"luckpay/gateways"
	"luckpay/models"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		trx     models.Transaction
		want    string
		wantErr bool
	}{
		{
			name: "explicit toppay wins over upi fields",
			trx:  models.Transaction{PaymentMethod: "toppay", UPIID: "user@upi"},
			want: gateways.NameTopPay,
		},
		{
			name: "explicit cloudpay",
			trx:  models.Transaction{PaymentMethod: "cloudpay"},
			want: gateways.NameCloudPay,
		},
		{
			name: "explicit wddpay",
			trx:  models.Transaction{PaymentMethod: "WDDPay"},
			want: gateways.NameWDDPay,
		},
		{
			name: "bank transfer stays internal",
			trx:  models.Transaction{PaymentMethod: "bank transfer", AccountNumber: "123", IFSCCode: "HDFC0001"},
			want: gateways.NameBank,
		},
		{
			name: "generic gateway with upi routes to cloudpay",
			trx:  models.Transaction{PaymentMethod: "gateway", UPIID: "user@upi"},
			want: gateways.NameCloudPay,
		},
		{
			name: "generic gateway with bank details routes to toppay",
			trx:  models.Transaction{PaymentMethod: "gateway", AccountNumber: "123456", IFSCCode: "HDFC0001"},
			want: gateways.NameTopPay,
		},
		{
			name: "upi beats bank when both present",
			trx: models.Transaction{
				PaymentMethod: "gateway",
				UPIID:         "user@upi",
				AccountNumber: "123456",
				IFSCCode:      "HDFC0001",
			},
			want: gateways.NameCloudPay,
		},
		{
			name:    "generic gateway without payment details",
			trx:     models.Transaction{PaymentMethod: "gateway"},
			wantErr: true,
		},
		{
			name:    "unknown method",
			trx:     models.Transaction{PaymentMethod: "cash"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gateways.Select(&tt.trx)
			if tt.wantErr {
				assert.ErrorIs(t, err, gateways.ErrNoGateway)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
