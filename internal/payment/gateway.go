// Package payment defines the capability boundary to the external payment
// processor.  The settlement service consumes only the Gateway interface;
// the Stripe-backed implementation lives in stripe.go.  The gateway is the
// single source of truth for whether money actually moved — callers must
// never trust a client-supplied success claim without RetrieveIntent.
package payment

import (
    "context"
    "errors"
    "fmt"
)

// Intent status values consumed by the settlement engine.  Only
// StatusSucceeded authorizes a settlement; every other status is surfaced
// to the caller unchanged.
const (
    StatusSucceeded = "succeeded"
    StatusCanceled  = "canceled"
)

// CreateIntentParams carries everything needed to open a payment intent.
// Metadata echoes beat_id/license_type/buyer_email so the intent can be
// audited against the sale it settles.
type CreateIntentParams struct {
    AmountCents int64
    Currency    string
    Description string
    Metadata    map[string]string
}

// IntentHandle is returned from CreateIntent.  The client secret is
// forwarded to the buyer's browser to complete the payment out-of-band.
type IntentHandle struct {
    ID           string
    ClientSecret string
    AmountCents  int64
    Currency     string
}

// Intent is the re-fetchable state of a payment intent as owned by the
// processor.  It is read-only from this system's point of view.
type Intent struct {
    ID          string
    Status      string
    AmountCents int64
    Currency    string
    Metadata    map[string]string
}

// Gateway is the narrow capability interface to the payment processor.
// Implementations must not retry internally and must not mutate any local
// state; retry policy belongs to the caller.
type Gateway interface {
    CreateIntent(ctx context.Context, p CreateIntentParams) (*IntentHandle, error)
    RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// ErrIntentNotFound is returned by RetrieveIntent when the processor does
// not know the given intent id.
var ErrIntentNotFound = errors.New("payment intent not found")

// GatewayError wraps a transport or processor failure.  It marks the
// condition as retryable by the caller, in contrast to terminal errors
// like ErrIntentNotFound.
type GatewayError struct {
    Op  string // operation that failed, e.g. "create intent"
    Err error
}

func (e *GatewayError) Error() string {
    return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
