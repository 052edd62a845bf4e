// This file defines handlers for the public catalog API.  These routes let
// unauthenticated visitors browse and search available beats.  Sold
// exclusive listings are hidden by the repository, and internal fields
// (buyer identity, sale timestamps) are filtered from responses.

package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/homerecords/beatstore/internal/model"
    "github.com/homerecords/beatstore/internal/repository"
)

// BeatHandler serves the public catalog endpoints.
type BeatHandler struct {
    BeatRepo *repository.BeatRepo // provides access to beat listings
}

// PublicBeat represents a beat exposed via the public API.  It contains
// only safe fields; buyer identity and sale timestamps stay internal.
type PublicBeat struct {
    ID           string            `json:"id"`
    Name         string            `json:"name"`
    Genre        string            `json:"genre"`
    BPM          uint32            `json:"bpm"`
    Key          string            `json:"key"`
    Mood         string            `json:"mood"`
    Prices       map[string]int64  `json:"prices"`
    AudioURL     string            `json:"audio_url"`
    CoverURL     string            `json:"cover_url"`
    Availability string            `json:"availability"`
    SalesCount   uint32            `json:"sales_count"`
    CreatedAt    time.Time         `json:"created_at"`
}

func toPublicBeat(b *model.Beat) PublicBeat {
    return PublicBeat{
        ID:    b.BeatID,
        Name:  b.Name,
        Genre: b.Genre,
        BPM:   b.BPM,
        Key:   b.KeySig,
        Mood:  b.Mood,
        Prices: map[string]int64{
            model.LicenseBasica:    b.PriceBasicaCents,
            model.LicensePremium:   b.PricePremiumCents,
            model.LicenseExclusiva: b.PriceExclusivaCents,
        },
        AudioURL:     b.AudioURL,
        CoverURL:     b.CoverURL,
        Availability: b.Availability,
        SalesCount:   b.SalesCount,
        CreatedAt:    b.CreatedAt,
    }
}

// ListBeats returns available beats matching the optional query filters.
// Supported parameters: genre, search, sort (recent|popular|price-low|
// price-high), limit and skip.  The response contains a "beats" array and
// the "total" match count for pagination.
func (h *BeatHandler) ListBeats(c echo.Context) error {
    ctx := c.Request().Context()

    f := repository.ListFilter{
        Genre:  c.QueryParam("genre"),
        Search: c.QueryParam("search"),
        Sort:   c.QueryParam("sort"),
    }
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            f.Limit = n
        }
    }
    if v := c.QueryParam("skip"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            f.Offset = n
        }
    }

    beats, total, err := h.BeatRepo.List(ctx, f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicBeat, 0, len(beats))
    for i := range beats {
        out = append(out, toPublicBeat(&beats[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"beats": out, "total": total})
}

// GetBeat returns a single beat by id.  Sold exclusive beats are still
// retrievable here so buyers holding a license keep a working detail page.
func (h *BeatHandler) GetBeat(c echo.Context) error {
    ctx := c.Request().Context()
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    b, err := h.BeatRepo.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrBeatNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "beat not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, toPublicBeat(b))
}
