package model

import "time"

// License tier identifiers as stored in sales rows and echoed through the
// payment gateway metadata.  The values are fixed; clients send them verbatim.
const (
    LicenseBasica    = "basica"    // MP3 lease, repeatable
    LicensePremium   = "premium"   // WAV lease, repeatable
    LicenseExclusiva = "exclusiva" // full rights, removes the beat from sale
)

// Availability states for a beat.  The only transition is
// available -> sold_exclusive and it is one-way: once a beat has been sold
// exclusively no further sale of any tier may succeed.
const (
    AvailabilityAvailable     = "available"
    AvailabilitySoldExclusive = "sold_exclusive"
)

// Beat represents a listing in the `beats` table.  Each field corresponds
// to a column.  Prices are stored per license tier in integer cents.  The
// json tags are omitted because handlers define separate response types
// with the shapes the public API exposes.
//
// Fields:
//  BeatID       – opaque identifier generated at listing time (beats.beat_id).
//  Name         – display name of the beat.
//  Genre        – musical genre used for filtering.
//  BPM          – tempo in beats per minute.
//  KeySig       – musical key (column key_sig; `key` is reserved in MySQL).
//  Mood         – free-form mood tag used in search.
//  Price*Cents  – price of each license tier in cents.
//  AudioURL     – preview MP3 location (storage is external to this service).
//  CoverURL     – cover image location.
//  WavURL       – optional WAV master location (premium/exclusiva deliverable).
//  StemsURL     – optional stems archive location (exclusiva deliverable).
//  Availability – available or sold_exclusive.
//  SoldTo       – buyer email once exclusively sold (nullable).
//  SoldAt       – when the exclusive sale settled (nullable).
//  SalesCount   – number of settled sales across all tiers.
//  CreatedAt    – listing timestamp.
type Beat struct {
    BeatID              string     // beats.beat_id
    Name                string     // beats.name
    Genre               string     // beats.genre
    BPM                 uint32     // beats.bpm
    KeySig              string     // beats.key_sig
    Mood                string     // beats.mood
    PriceBasicaCents    int64      // beats.price_basica_cents
    PricePremiumCents   int64      // beats.price_premium_cents
    PriceExclusivaCents int64      // beats.price_exclusiva_cents
    AudioURL            string     // beats.audio_url
    CoverURL            string     // beats.cover_url
    WavURL              *string    // beats.wav_url (nullable)
    StemsURL            *string    // beats.stems_url (nullable)
    Availability        string     // beats.availability
    SoldTo              *string    // beats.sold_to (nullable)
    SoldAt              *time.Time // beats.sold_at (nullable)
    SalesCount          uint32     // beats.sales_count
    CreatedAt           time.Time  // beats.created_at
}

// PriceCentsFor returns the price of the given license tier.  The second
// return value is false when the license string is not a known tier.
func (b *Beat) PriceCentsFor(license string) (int64, bool) {
    switch license {
    case LicenseBasica:
        return b.PriceBasicaCents, true
    case LicensePremium:
        return b.PricePremiumCents, true
    case LicenseExclusiva:
        return b.PriceExclusivaCents, true
    }
    return 0, false
}

// Available reports whether the beat can still be purchased.
func (b *Beat) Available() bool {
    return b.Availability == AvailabilityAvailable
}
