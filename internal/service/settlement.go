// Package service implements the purchase settlement engine: the only
// component permitted to transition catalog availability or append sale
// ledger rows.  It orchestrates the payment gateway, the beats catalog
// and the sales ledger; correctness under concurrent confirmations
// derives entirely from the two stores' atomic primitives, so the engine
// itself holds no cross-call state and needs no locking.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/homerecords/beatstore/internal/model"
    "github.com/homerecords/beatstore/internal/payment"
    "github.com/homerecords/beatstore/internal/queue"
)

// saleCurrency is the only currency the shop charges in.
const saleCurrency = "usd"

// CatalogStore is the engine's view of beat persistence.  TryMarkSoldExclusive
// must be an atomic conditional update: (true, nil) when this call performed
// the available -> sold_exclusive transition, (false, nil) when the beat was
// already sold, and repository.ErrBeatNotFound when the beat does not exist.
type CatalogStore interface {
    GetByID(ctx context.Context, beatID string) (*model.Beat, error)
    TryMarkSoldExclusive(ctx context.Context, beatID, buyerEmail string, soldAt time.Time) (bool, error)
    IncrementSaleCount(ctx context.Context, beatID string) error
}

// SaleLedger is the engine's view of the append-only sales record.
// InsertIfAbsent must be an atomic insert-if-key-absent keyed by payment
// intent id: (true, nil) when inserted, (false, nil) when a row already
// exists for the intent.
type SaleLedger interface {
    InsertIfAbsent(ctx context.Context, sale *model.Sale) (bool, error)
    GetByIntentID(ctx context.Context, paymentIntentID string) (*model.Sale, error)
    ListRecent(ctx context.Context, limit int) ([]model.Sale, error)
}

// PublishFunc delivers a settlement event to the message broker.  Delivery
// is best effort; errors are logged, never propagated to the buyer.
type PublishFunc func(ctx context.Context, event queue.SaleSettledEvent) error

// PurchaseService wires the stores and the gateway into the purchase flow.
type PurchaseService struct {
    catalog CatalogStore
    ledger  SaleLedger
    gateway payment.Gateway
    publish PublishFunc // may be nil when no broker is configured
}

// NewPurchaseService constructs the settlement engine.  catalog, ledger and
// gateway must be non-nil; publish may be nil to disable event delivery.
func NewPurchaseService(catalog CatalogStore, ledger SaleLedger, gateway payment.Gateway, publish PublishFunc) *PurchaseService {
    if catalog == nil || ledger == nil || gateway == nil {
        panic("nil dependency passed to NewPurchaseService")
    }
    return &PurchaseService{catalog: catalog, ledger: ledger, gateway: gateway, publish: publish}
}

// ErrBeatUnavailable is returned when an intent is requested for a beat
// that has already been sold exclusively.
var ErrBeatUnavailable = errors.New("beat no longer available")

// ErrUnknownLicense is returned when the license type does not match any
// tier the beat is priced for.
var ErrUnknownLicense = errors.New("unknown license type")

// PaymentNotCompletedError reports that the gateway does not consider the
// intent paid.  The call is terminal: the caller must re-poll or prompt
// the buyer, and nothing has been mutated.
type PaymentNotCompletedError struct {
    Status string
}

func (e *PaymentNotCompletedError) Error() string {
    return fmt.Sprintf("payment not completed: status %q", e.Status)
}

// CreateIntentInput carries a buyer's request to open a payment for a
// beat license.  The amount is never taken from the client; it is looked
// up from the beat's tier pricing.
type CreateIntentInput struct {
    BeatID      string
    LicenseType string
    BuyerEmail  string
    BuyerName   string
}

// CreatePaymentIntent validates the beat and tier, then opens an intent
// with the gateway carrying the purchase details as metadata.  No local
// state is mutated; the sale is only recorded at confirmation time.
func (s *PurchaseService) CreatePaymentIntent(ctx context.Context, in CreateIntentInput) (*payment.IntentHandle, error) {
    beat, err := s.catalog.GetByID(ctx, in.BeatID)
    if err != nil {
        return nil, err
    }
    if !beat.Available() {
        return nil, ErrBeatUnavailable
    }
    amount, ok := beat.PriceCentsFor(in.LicenseType)
    if !ok {
        return nil, ErrUnknownLicense
    }
    buyerName := in.BuyerName
    if buyerName == "" {
        buyerName = "N/A"
    }
    return s.gateway.CreateIntent(ctx, payment.CreateIntentParams{
        AmountCents: amount,
        Currency:    saleCurrency,
        Description: fmt.Sprintf("Beat: %s - Licencia %s", beat.Name, in.LicenseType),
        Metadata: map[string]string{
            "beat_id":      beat.BeatID,
            "beat_name":    beat.Name,
            "license_type": in.LicenseType,
            "buyer_email":  in.BuyerEmail,
            "buyer_name":   buyerName,
        },
    })
}

// ConfirmInput identifies the payment to settle.  The caller never
// supplies an amount; the gateway's reported amount is authoritative.
type ConfirmInput struct {
    PaymentIntentID string
    BeatID          string
    LicenseType     string
    BuyerEmail      string
}

// SettlementResult is returned from ConfirmPurchase.  Re-running the
// confirmation for the same intent yields the same result: the ledger row
// is the durable half and Exclusive/Anomaly are recomputed from current
// beat state.
type SettlementResult struct {
    PaymentIntentID string `json:"payment_intent_id"`
    BeatID          string `json:"beat_id"`
    LicenseType     string `json:"license_type"`
    AmountCents     int64  `json:"amount_cents"`
    Currency        string `json:"currency"`
    Exclusive       bool   `json:"exclusive"`
    Anomaly         bool   `json:"anomaly"`
}

// ConfirmPurchase settles a completed payment:
//
//  1. verify with the gateway that the intent actually succeeded;
//  2. look up the beat;
//  3. record the sale, keyed by intent id, with the gateway's amount —
//     a duplicate means this intent was already settled and the call
//     replays idempotently;
//  4. bump the beat's sales counter (best effort);
//  5. for the exclusiva tier, attempt the atomic exclusivity transition.
//
// Ledger and catalog are deliberately decoupled: if two succeeded payments
// race for the same beat's exclusivity, both keep their sale rows (the
// money was real) but only one buyer is granted the beat; the loser's
// result carries Anomaly=true and the conflict is logged and published
// for manual reconciliation instead of failing the settlement.
func (s *PurchaseService) ConfirmPurchase(ctx context.Context, in ConfirmInput) (*SettlementResult, error) {
    intent, err := s.gateway.RetrieveIntent(ctx, in.PaymentIntentID)
    if err != nil {
        return nil, err
    }
    if intent.Status != payment.StatusSucceeded {
        return nil, &PaymentNotCompletedError{Status: intent.Status}
    }

    beat, err := s.catalog.GetByID(ctx, in.BeatID)
    if err != nil {
        return nil, err
    }

    sale := model.Sale{
        PaymentIntentID: in.PaymentIntentID,
        BeatID:          in.BeatID,
        LicenseType:     in.LicenseType,
        BuyerEmail:      in.BuyerEmail,
        AmountCents:     intent.AmountCents, // gateway amount, never the caller's
        Currency:        intent.Currency,
        Exclusive:       in.LicenseType == model.LicenseExclusiva,
        CreatedAt:       time.Now().UTC(),
    }
    if sale.Currency == "" {
        sale.Currency = saleCurrency
    }

    inserted, err := s.ledger.InsertIfAbsent(ctx, &sale)
    if err != nil {
        return nil, err
    }
    if !inserted {
        return s.replaySettlement(ctx, in.PaymentIntentID)
    }

    if err := s.catalog.IncrementSaleCount(ctx, in.BeatID); err != nil {
        // Counter is a statistic, not money; never block settlement on it.
        log.Printf("settlement: increment sale count for beat %s failed: %v", in.BeatID, err)
    }

    result := &SettlementResult{
        PaymentIntentID: sale.PaymentIntentID,
        BeatID:          sale.BeatID,
        LicenseType:     sale.LicenseType,
        AmountCents:     sale.AmountCents,
        Currency:        sale.Currency,
    }
    if in.LicenseType == model.LicenseExclusiva {
        result.Exclusive, result.Anomaly, err = s.settleExclusivity(ctx, in.BeatID, in.BuyerEmail)
        if err != nil {
            return nil, err
        }
    }

    s.publishSettled(ctx, beat.Name, &sale, result)
    return result, nil
}

// replaySettlement rebuilds the result of a confirmation that was already
// recorded.  The amount, license and buyer come from the recorded sale
// row; the exclusivity outcome is recomputed against current beat state,
// which also completes the catalog transition if an earlier call recorded
// the sale but crashed before marking the beat.
func (s *PurchaseService) replaySettlement(ctx context.Context, paymentIntentID string) (*SettlementResult, error) {
    recorded, err := s.ledger.GetByIntentID(ctx, paymentIntentID)
    if err != nil {
        return nil, err
    }
    result := &SettlementResult{
        PaymentIntentID: recorded.PaymentIntentID,
        BeatID:          recorded.BeatID,
        LicenseType:     recorded.LicenseType,
        AmountCents:     recorded.AmountCents,
        Currency:        recorded.Currency,
    }
    if recorded.LicenseType == model.LicenseExclusiva {
        result.Exclusive, result.Anomaly, err = s.settleExclusivity(ctx, recorded.BeatID, recorded.BuyerEmail)
        if err != nil {
            return nil, err
        }
    }
    return result, nil
}

// settleExclusivity attempts the atomic availability transition and
// interprets the outcome for this buyer.  Losing the update is not an
// error by itself: the buyer may be the one the beat was already granted
// to (a retried confirmation), in which case exclusivity is re-confirmed.
// Only a grant held by somebody else is an anomaly.
func (s *PurchaseService) settleExclusivity(ctx context.Context, beatID, buyerEmail string) (exclusive, anomaly bool, err error) {
    applied, err := s.catalog.TryMarkSoldExclusive(ctx, beatID, buyerEmail, time.Now().UTC())
    if err != nil {
        return false, false, err
    }
    if applied {
        return true, false, nil
    }
    current, err := s.catalog.GetByID(ctx, beatID)
    if err != nil {
        return false, false, err
    }
    if current.SoldTo != nil && *current.SoldTo == buyerEmail {
        return true, false, nil
    }
    log.Printf("settlement: exclusivity conflict on beat %s: already granted, buyer %s keeps a recorded sale pending reconciliation", beatID, buyerEmail)
    return false, true, nil
}

// publishSettled emits the sale.settled event for a freshly recorded
// sale.  Failures are logged only.
func (s *PurchaseService) publishSettled(ctx context.Context, beatName string, sale *model.Sale, result *SettlementResult) {
    if s.publish == nil {
        return
    }
    ev := queue.SaleSettledEvent{
        PaymentIntentID: sale.PaymentIntentID,
        BeatID:          sale.BeatID,
        BeatName:        beatName,
        LicenseType:     sale.LicenseType,
        BuyerEmail:      sale.BuyerEmail,
        AmountCents:     sale.AmountCents,
        Currency:        sale.Currency,
        Exclusive:       result.Exclusive,
        Anomaly:         result.Anomaly,
        SettledAt:       sale.CreatedAt.Format(time.RFC3339),
    }
    if err := s.publish(ctx, ev); err != nil {
        log.Printf("settlement: publish sale.settled for intent %s failed: %v", sale.PaymentIntentID, err)
    }
}

// RecentSales returns the newest settled sales for reporting.  A
// non-positive limit defaults to 100.
func (s *PurchaseService) RecentSales(ctx context.Context, limit int) ([]model.Sale, error) {
    if limit <= 0 {
        limit = 100
    }
    return s.ledger.ListRecent(ctx, limit)
}
