// This file defines handlers for the admin catalog API.  These routes are
// registered behind JWT authentication with the ADMIN role and allow the
// shop owner to publish and retire beat listings.

package handler

import (
    "crypto/rand"
    "encoding/hex"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/homerecords/beatstore/internal/model"
    "github.com/homerecords/beatstore/internal/repository"
)

// AdminBeatHandler serves the authenticated catalog management endpoints.
type AdminBeatHandler struct {
    BeatRepo *repository.BeatRepo
}

// createBeatRequest is the expected JSON body for POST /v1/admin/beats.
// Prices are integer cents per license tier.
type createBeatRequest struct {
    Name                string `json:"name"`
    Genre               string `json:"genre"`
    BPM                 uint32 `json:"bpm"`
    Key                 string `json:"key"`
    Mood                string `json:"mood"`
    PriceBasicaCents    int64  `json:"price_basica_cents"`
    PricePremiumCents   int64  `json:"price_premium_cents"`
    PriceExclusivaCents int64  `json:"price_exclusiva_cents"`
    AudioURL            string `json:"audio_url"`
    CoverURL            string `json:"cover_url"`
    WavURL              string `json:"wav_url"`
    StemsURL            string `json:"stems_url"`
}

// newBeatID generates an opaque listing id of the form "beat_" followed
// by 12 hex characters.
func newBeatID() (string, error) {
    buf := make([]byte, 6)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return "beat_" + hex.EncodeToString(buf), nil
}

// CreateBeat publishes a new listing.  New beats always start available
// with a zero sales counter.
func (h *AdminBeatHandler) CreateBeat(c echo.Context) error {
    ctx := c.Request().Context()

    var req createBeatRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" || req.Genre == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and genre are required"})
    }
    if req.PriceBasicaCents <= 0 || req.PricePremiumCents <= 0 || req.PriceExclusivaCents <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "all license prices must be positive"})
    }

    id, err := newBeatID()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate id"})
    }
    b := model.Beat{
        BeatID:              id,
        Name:                req.Name,
        Genre:               req.Genre,
        BPM:                 req.BPM,
        KeySig:              req.Key,
        Mood:                req.Mood,
        PriceBasicaCents:    req.PriceBasicaCents,
        PricePremiumCents:   req.PricePremiumCents,
        PriceExclusivaCents: req.PriceExclusivaCents,
        AudioURL:            req.AudioURL,
        CoverURL:            req.CoverURL,
    }
    if req.WavURL != "" {
        b.WavURL = &req.WavURL
    }
    if req.StemsURL != "" {
        b.StemsURL = &req.StemsURL
    }

    if err := h.BeatRepo.Create(ctx, &b); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, toPublicBeat(&b))
}

// DeleteBeat retires a listing.  Settled sales referencing the beat are
// kept for bookkeeping.
func (h *AdminBeatHandler) DeleteBeat(c echo.Context) error {
    ctx := c.Request().Context()
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.BeatRepo.Delete(ctx, id); err != nil {
        if err == repository.ErrBeatNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "beat not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.NoContent(http.StatusNoContent)
}
