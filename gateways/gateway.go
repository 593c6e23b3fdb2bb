package gateways

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// PayoutRequest is the ephemeral value object handed to a gateway. It is
// never persisted on its own; the gateway response is stored verbatim on
// the owning transaction.
type PayoutRequest struct {
	OrderNum      string
	Amount        decimal.Decimal
	AccountName   string
	AccountNumber string
	IFSCCode      string
	BankCode      string
	UPIID         string
}

type InitiateResult struct {
	Accepted         bool
	GatewayReference string
	RawResponse      []byte
}

type CallbackResult string

const (
	ResultSucceeded CallbackResult = "succeeded"
	ResultFailed    CallbackResult = "failed"
	ResultPending   CallbackResult = "pending"
)

// CallbackStatus is the gateway-neutral view of a verified webhook
// payload.
type CallbackStatus struct {
	Reference string
	Amount    decimal.Decimal
	Result    CallbackResult
	Raw       []byte
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req PayoutRequest) (*InitiateResult, error)
	// VerifyCallback checks the payload signature before anything else
	// and returns SignatureError on mismatch.
	VerifyCallback(values url.Values) (*CallbackStatus, error)
}

// StatusQuerier is implemented by gateways that expose a payout status
// endpoint, used by the reconciler for transactions stuck in processing.
type StatusQuerier interface {
	QueryPayout(ctx context.Context, orderNum string) (CallbackResult, error)
}

// GatewayError wraps any network, timeout or non-success response from a
// payout provider. It triggers the refund path and is never fatal.
type GatewayError struct {
	Gateway string
	Message string
	Raw     []byte
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Gateway, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Gateway, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SignatureError marks a webhook payload whose signature did not verify.
// Such payloads must never be processed.
type SignatureError struct {
	Gateway string
	Message string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Gateway, e.Message)
}

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: map[string]Gateway{}}
}

func (r *Registry) Register(g Gateway) {
	r.gateways[strings.ToLower(g.Name())] = g
}

func (r *Registry) Get(name string) Gateway {
	return r.gateways[strings.ToLower(name)]
}

// DefaultRegistry builds the production gateway set from the
// environment. Call after godotenv.Load.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TopPayFromEnv())
	r.Register(CloudPayFromEnv())
	r.Register(WDDPayFromEnv())
	return r
}
