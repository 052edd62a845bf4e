// This file defines handlers for the payment flow: opening a payment
// intent for a beat license, confirming a completed payment so the sale
// is settled, exposing the publishable key to the frontend and the admin
// sales report.

package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/homerecords/beatstore/internal/config"
    "github.com/homerecords/beatstore/internal/model"
    "github.com/homerecords/beatstore/internal/payment"
    "github.com/homerecords/beatstore/internal/repository"
    "github.com/homerecords/beatstore/internal/service"
)

// PaymentHandler exposes the purchase endpoints backed by the settlement
// service.
type PaymentHandler struct {
    Svc *service.PurchaseService
    Cfg config.Config
}

// createIntentRequest is the expected JSON body for POST /v1/payment/intent.
// No amount field exists: the charge is derived from the beat's tier
// pricing server-side.
type createIntentRequest struct {
    BeatID      string `json:"beat_id"`
    LicenseType string `json:"license_type"`
    BuyerEmail  string `json:"buyer_email"`
    BuyerName   string `json:"buyer_name"`
}

// confirmRequest is the expected JSON body for POST /v1/payment/confirm.
type confirmRequest struct {
    PaymentIntentID string `json:"payment_intent_id"`
    BeatID          string `json:"beat_id"`
    LicenseType     string `json:"license_type"`
    BuyerEmail      string `json:"buyer_email"`
}

// saleItem is one row of the admin sales report.
type saleItem struct {
    PaymentIntentID string    `json:"payment_intent_id"`
    BeatID          string    `json:"beat_id"`
    LicenseType     string    `json:"license_type"`
    BuyerEmail      string    `json:"buyer_email"`
    AmountCents     int64     `json:"amount_cents"`
    Currency        string    `json:"currency"`
    Exclusive       bool      `json:"exclusive"`
    CreatedAt       time.Time `json:"created_at"`
}

// CreateIntent opens a payment intent for a beat license and returns the
// client secret the buyer's browser needs to complete the payment.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    ctx := c.Request().Context()

    var req createIntentRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.BuyerEmail = strings.TrimSpace(strings.ToLower(req.BuyerEmail))
    if req.BeatID == "" || req.LicenseType == "" || req.BuyerEmail == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "beat_id, license_type and buyer_email are required"})
    }

    handle, err := h.Svc.CreatePaymentIntent(ctx, service.CreateIntentInput{
        BeatID:      req.BeatID,
        LicenseType: req.LicenseType,
        BuyerEmail:  req.BuyerEmail,
        BuyerName:   strings.TrimSpace(req.BuyerName),
    })
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "payment_intent_id": handle.ID,
        "client_secret":     handle.ClientSecret,
        "amount_cents":      handle.AmountCents,
        "currency":          handle.Currency,
    })
}

// Confirm settles a completed payment.  The call is idempotent: repeating
// it for the same payment intent returns the same settlement result
// without recording a second sale.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    ctx := c.Request().Context()

    var req confirmRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.BuyerEmail = strings.TrimSpace(strings.ToLower(req.BuyerEmail))
    if req.PaymentIntentID == "" || req.BeatID == "" || req.LicenseType == "" || req.BuyerEmail == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_intent_id, beat_id, license_type and buyer_email are required"})
    }

    result, err := h.Svc.ConfirmPurchase(ctx, service.ConfirmInput{
        PaymentIntentID: req.PaymentIntentID,
        BeatID:          req.BeatID,
        LicenseType:     req.LicenseType,
        BuyerEmail:      req.BuyerEmail,
    })
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// Config returns the publishable key the frontend needs to initialize the
// payment form.
func (h *PaymentHandler) Config(c echo.Context) error {
    if h.Cfg.StripePublishableKey == "" {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
    }
    return c.JSON(http.StatusOK, echo.Map{"publishable_key": h.Cfg.StripePublishableKey})
}

// Sales returns the most recent settled sales for the admin report.  The
// optional ?limit parameter caps the row count; it defaults to 100.
func (h *PaymentHandler) Sales(c echo.Context) error {
    ctx := c.Request().Context()

    limit := 0
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            limit = n
        }
    }
    sales, err := h.Svc.RecentSales(ctx, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]saleItem, 0, len(sales))
    for _, s := range sales {
        out = append(out, saleItem{
            PaymentIntentID: s.PaymentIntentID,
            BeatID:          s.BeatID,
            LicenseType:     s.LicenseType,
            BuyerEmail:      s.BuyerEmail,
            AmountCents:     s.AmountCents,
            Currency:        s.Currency,
            Exclusive:       s.Exclusive,
            CreatedAt:       s.CreatedAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"sales": out, "total": len(out)})
}

// paymentError maps service and gateway errors to HTTP responses.  Buyer
// mistakes are 4xx, processor trouble is 502, everything else is a plain
// 500 so internals never leak.
func paymentError(c echo.Context, err error) error {
    var notCompleted *service.PaymentNotCompletedError
    var gwErr *payment.GatewayError
    switch {
    case errors.Is(err, repository.ErrBeatNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "beat not found"})
    case errors.Is(err, repository.ErrSaleNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "sale not found"})
    case errors.Is(err, service.ErrBeatUnavailable):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "beat no longer available"})
    case errors.Is(err, service.ErrUnknownLicense):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown license type, expected " +
            model.LicenseBasica + ", " + model.LicensePremium + " or " + model.LicenseExclusiva})
    case errors.Is(err, payment.ErrIntentNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "payment intent not found"})
    case errors.As(err, &notCompleted):
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":  "payment not completed",
            "status": notCompleted.Status,
        })
    case errors.As(err, &gwErr):
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway error"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
