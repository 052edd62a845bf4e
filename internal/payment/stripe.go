package payment

import (
    "context"
    "errors"

    stripe "github.com/stripe/stripe-go/v82"
    "github.com/stripe/stripe-go/v82/client"
)

// StripeGateway implements Gateway on top of the Stripe API.  The client
// is constructed once and injected wherever payments are needed; no
// package-level API key is set.
type StripeGateway struct {
    api *client.API
}

// NewStripeGateway builds a gateway authenticated with the given secret
// key.
func NewStripeGateway(secretKey string) *StripeGateway {
    api := &client.API{}
    api.Init(secretKey, nil)
    return &StripeGateway{api: api}
}

// CreateIntent opens a payment intent with the processor.  Stripe amounts
// are integer cents, matching the rest of the system.  The call is not
// retried here; a failure surfaces as *GatewayError for the caller's own
// retry policy.
func (g *StripeGateway) CreateIntent(ctx context.Context, p CreateIntentParams) (*IntentHandle, error) {
    params := &stripe.PaymentIntentParams{
        Amount:   stripe.Int64(p.AmountCents),
        Currency: stripe.String(p.Currency),
    }
    params.Context = ctx
    if p.Description != "" {
        params.Description = stripe.String(p.Description)
    }
    for k, v := range p.Metadata {
        params.AddMetadata(k, v)
    }
    pi, err := g.api.PaymentIntents.New(params)
    if err != nil {
        return nil, &GatewayError{Op: "create intent", Err: err}
    }
    return &IntentHandle{
        ID:           pi.ID,
        ClientSecret: pi.ClientSecret,
        AmountCents:  pi.Amount,
        Currency:     string(pi.Currency),
    }, nil
}

// RetrieveIntent fetches the current state of an intent from the
// processor.  An unknown id maps to ErrIntentNotFound; any other failure
// is wrapped as *GatewayError.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
    params := &stripe.PaymentIntentParams{}
    params.Context = ctx
    pi, err := g.api.PaymentIntents.Get(id, params)
    if err != nil {
        var se *stripe.Error
        if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
            return nil, ErrIntentNotFound
        }
        return nil, &GatewayError{Op: "retrieve intent", Err: err}
    }
    return &Intent{
        ID:          pi.ID,
        Status:      string(pi.Status),
        AmountCents: pi.Amount,
        Currency:    string(pi.Currency),
        Metadata:    pi.Metadata,
    }, nil
}
