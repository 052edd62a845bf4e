package model

import "time"

// Sale records one settled payment in the `sales` table.  Rows are keyed by
// the gateway's payment intent id, which doubles as the deduplication key:
// at most one sale may exist per intent regardless of how many times a
// confirmation is retried.  Rows are written exactly once and never updated.
//
// Fields:
//  PaymentIntentID – gateway intent id, primary key (sales.payment_intent_id).
//  BeatID          – beat the license was bought for.
//  LicenseType     – one of the License* constants.
//  BuyerEmail      – buyer contact for license delivery.
//  AmountCents     – amount actually charged, as reported by the gateway.
//  Currency        – ISO currency code (lowercase, e.g. "usd").
//  Exclusive       – whether this sale was for the exclusiva tier.
//  CreatedAt       – settlement timestamp (UTC).
type Sale struct {
    PaymentIntentID string    // sales.payment_intent_id
    BeatID          string    // sales.beat_id
    LicenseType     string    // sales.license_type
    BuyerEmail      string    // sales.buyer_email
    AmountCents     int64     // sales.amount_cents
    Currency        string    // sales.currency
    Exclusive       bool      // sales.exclusive
    CreatedAt       time.Time // sales.created_at
}
