package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/homerecords/beatstore/internal/model"
    "github.com/homerecords/beatstore/internal/payment"
    "github.com/homerecords/beatstore/internal/repository"
    "github.com/homerecords/beatstore/internal/service"
)

// stubCatalog serves a single beat.
type stubCatalog struct {
    beat *model.Beat
}

func (s *stubCatalog) GetByID(_ context.Context, beatID string) (*model.Beat, error) {
    if s.beat == nil || s.beat.BeatID != beatID {
        return nil, repository.ErrBeatNotFound
    }
    cp := *s.beat
    return &cp, nil
}

func (s *stubCatalog) TryMarkSoldExclusive(_ context.Context, beatID, buyerEmail string, soldAt time.Time) (bool, error) {
    if s.beat == nil || s.beat.BeatID != beatID {
        return false, repository.ErrBeatNotFound
    }
    if s.beat.Availability != model.AvailabilityAvailable {
        return false, nil
    }
    s.beat.Availability = model.AvailabilitySoldExclusive
    email := buyerEmail
    s.beat.SoldTo = &email
    at := soldAt
    s.beat.SoldAt = &at
    return true, nil
}

func (s *stubCatalog) IncrementSaleCount(_ context.Context, beatID string) error {
    if s.beat == nil || s.beat.BeatID != beatID {
        return repository.ErrBeatNotFound
    }
    s.beat.SalesCount++
    return nil
}

// stubLedger keeps sales in a map.
type stubLedger struct {
    sales map[string]model.Sale
}

func (s *stubLedger) InsertIfAbsent(_ context.Context, sale *model.Sale) (bool, error) {
    if s.sales == nil {
        s.sales = make(map[string]model.Sale)
    }
    if _, ok := s.sales[sale.PaymentIntentID]; ok {
        return false, nil
    }
    s.sales[sale.PaymentIntentID] = *sale
    return true, nil
}

func (s *stubLedger) GetByIntentID(_ context.Context, id string) (*model.Sale, error) {
    sale, ok := s.sales[id]
    if !ok {
        return nil, repository.ErrSaleNotFound
    }
    return &sale, nil
}

func (s *stubLedger) ListRecent(_ context.Context, limit int) ([]model.Sale, error) {
    out := make([]model.Sale, 0, len(s.sales))
    for _, sale := range s.sales {
        out = append(out, sale)
    }
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

// stubGateway serves canned intents by id.
type stubGateway struct {
    intents map[string]*payment.Intent
}

func (s *stubGateway) CreateIntent(_ context.Context, p payment.CreateIntentParams) (*payment.IntentHandle, error) {
    return &payment.IntentHandle{
        ID:           "pi_test",
        ClientSecret: "pi_test_secret",
        AmountCents:  p.AmountCents,
        Currency:     p.Currency,
    }, nil
}

func (s *stubGateway) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
    in, ok := s.intents[id]
    if !ok {
        return nil, payment.ErrIntentNotFound
    }
    return in, nil
}

func availableBeat() *model.Beat {
    return &model.Beat{
        BeatID:              "beat_abc123",
        Name:                "Midnight Drive",
        Genre:               "trap",
        PriceBasicaCents:    2999,
        PricePremiumCents:   4999,
        PriceExclusivaCents: 29999,
        Availability:        model.AvailabilityAvailable,
    }
}

func newPaymentHandler(beat *model.Beat, intents map[string]*payment.Intent) *PaymentHandler {
    svc := service.NewPurchaseService(
        &stubCatalog{beat: beat},
        &stubLedger{},
        &stubGateway{intents: intents},
        nil,
    )
    return &PaymentHandler{Svc: svc}
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if err := h(c); err != nil {
        t.Fatalf("handler error: %v", err)
    }
    return rec
}

func TestConfirmEndpoint(t *testing.T) {
    t.Run("settles a completed payment", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), map[string]*payment.Intent{
            "pi_1": {ID: "pi_1", Status: payment.StatusSucceeded, AmountCents: 29999, Currency: "usd"},
        })
        body := `{"payment_intent_id":"pi_1","beat_id":"beat_abc123","license_type":"exclusiva","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.Confirm, http.MethodPost, "/v1/payment/confirm", body)
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
        }
        var res service.SettlementResult
        if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
            t.Fatalf("unmarshal: %v", err)
        }
        if !res.Exclusive || res.Anomaly || res.AmountCents != 29999 {
            t.Fatalf("unexpected result: %+v", res)
        }
    })

    t.Run("rejects an incomplete payment", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), map[string]*payment.Intent{
            "pi_1": {ID: "pi_1", Status: "processing", AmountCents: 29999, Currency: "usd"},
        })
        body := `{"payment_intent_id":"pi_1","beat_id":"beat_abc123","license_type":"exclusiva","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.Confirm, http.MethodPost, "/v1/payment/confirm", body)
        if rec.Code != http.StatusBadRequest {
            t.Fatalf("status = %d, want 400", rec.Code)
        }
        var resp map[string]string
        if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
            t.Fatalf("unmarshal: %v", err)
        }
        if resp["status"] != "processing" {
            t.Fatalf("response should echo the gateway status, got %v", resp)
        }
    })

    t.Run("unknown intent is 404", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), nil)
        body := `{"payment_intent_id":"pi_missing","beat_id":"beat_abc123","license_type":"basica","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.Confirm, http.MethodPost, "/v1/payment/confirm", body)
        if rec.Code != http.StatusNotFound {
            t.Fatalf("status = %d, want 404", rec.Code)
        }
    })

    t.Run("missing fields are 400", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), nil)
        rec := doJSON(t, h.Confirm, http.MethodPost, "/v1/payment/confirm", `{"payment_intent_id":"pi_1"}`)
        if rec.Code != http.StatusBadRequest {
            t.Fatalf("status = %d, want 400", rec.Code)
        }
    })
}

func TestCreateIntentEndpoint(t *testing.T) {
    t.Run("returns the client secret", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), nil)
        body := `{"beat_id":"beat_abc123","license_type":"premium","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.CreateIntent, http.MethodPost, "/v1/payment/intent", body)
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
        }
        var resp map[string]interface{}
        if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
            t.Fatalf("unmarshal: %v", err)
        }
        if resp["client_secret"] != "pi_test_secret" {
            t.Fatalf("client_secret = %v", resp["client_secret"])
        }
        if resp["amount_cents"].(float64) != 4999 {
            t.Fatalf("amount_cents = %v, want premium list price", resp["amount_cents"])
        }
    })

    t.Run("sold beat is rejected", func(t *testing.T) {
        b := availableBeat()
        b.Availability = model.AvailabilitySoldExclusive
        h := newPaymentHandler(b, nil)
        body := `{"beat_id":"beat_abc123","license_type":"basica","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.CreateIntent, http.MethodPost, "/v1/payment/intent", body)
        if rec.Code != http.StatusBadRequest {
            t.Fatalf("status = %d, want 400", rec.Code)
        }
    })

    t.Run("unknown beat is 404", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), nil)
        body := `{"beat_id":"beat_nope","license_type":"basica","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.CreateIntent, http.MethodPost, "/v1/payment/intent", body)
        if rec.Code != http.StatusNotFound {
            t.Fatalf("status = %d, want 404", rec.Code)
        }
    })

    t.Run("unknown license is 400", func(t *testing.T) {
        h := newPaymentHandler(availableBeat(), nil)
        body := `{"beat_id":"beat_abc123","license_type":"platinum","buyer_email":"ana@example.com"}`
        rec := doJSON(t, h.CreateIntent, http.MethodPost, "/v1/payment/intent", body)
        if rec.Code != http.StatusBadRequest {
            t.Fatalf("status = %d, want 400", rec.Code)
        }
    })
}

func TestPaymentConfigEndpoint(t *testing.T) {
    h := &PaymentHandler{}
    rec := doJSON(t, h.Config, http.MethodGet, "/v1/payment/config", "")
    if rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("status = %d, want 503 when no publishable key is configured", rec.Code)
    }

    h.Cfg.StripePublishableKey = "pk_test_123"
    rec = doJSON(t, h.Config, http.MethodGet, "/v1/payment/config", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
    var resp map[string]string
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("unmarshal: %v", err)
    }
    if resp["publishable_key"] != "pk_test_123" {
        t.Fatalf("publishable_key = %q", resp["publishable_key"])
    }
}
