// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records settled sales.
package queue

// SaleSettledEvent is published when a payment is settled and its sale row
// recorded.  It contains enough information for downstream consumers to
// log, notify or reconcile without querying the primary database.  The
// Anomaly flag marks the exclusivity edge case where the payment was
// recorded but the beat had already been granted to another buyer; those
// events need manual reconciliation.
type SaleSettledEvent struct {
    PaymentIntentID string `json:"payment_intent_id"`
    BeatID          string `json:"beat_id"`
    BeatName        string `json:"beat_name"`
    LicenseType     string `json:"license_type"`
    BuyerEmail      string `json:"buyer_email"`
    AmountCents     int64  `json:"amount_cents"`
    Currency        string `json:"currency"`
    Exclusive       bool   `json:"exclusive"`
    Anomaly         bool   `json:"anomaly"`
    SettledAt       string `json:"settled_at"`
}
