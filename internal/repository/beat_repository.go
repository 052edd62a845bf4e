package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/homerecords/beatstore/internal/model"
)

// BeatRepo provides data access to the beats table.  It is the catalog
// store of the shop: listings, availability state and the sales counter
// all live here.  All timestamps are stored in UTC.
type BeatRepo struct {
    db *sql.DB
}

// NewBeatRepo returns a new BeatRepo bound to the given database.
func NewBeatRepo(db *sql.DB) *BeatRepo { return &BeatRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories when needed.
func (r *BeatRepo) DB() *sql.DB { return r.db }

const beatColumns = `beat_id, name, genre, bpm, key_sig, mood,
       price_basica_cents, price_premium_cents, price_exclusiva_cents,
       audio_url, cover_url, wav_url, stems_url,
       availability, sold_to, sold_at, sales_count, created_at`

// scanBeat reads one row into a model.Beat.  The row must select
// beatColumns in order.
func scanBeat(row interface{ Scan(...interface{}) error }) (*model.Beat, error) {
    var b model.Beat
    var wavURL, stemsURL, soldTo sql.NullString
    var soldAt sql.NullTime
    err := row.Scan(
        &b.BeatID, &b.Name, &b.Genre, &b.BPM, &b.KeySig, &b.Mood,
        &b.PriceBasicaCents, &b.PricePremiumCents, &b.PriceExclusivaCents,
        &b.AudioURL, &b.CoverURL, &wavURL, &stemsURL,
        &b.Availability, &soldTo, &soldAt, &b.SalesCount, &b.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if wavURL.Valid {
        v := wavURL.String
        b.WavURL = &v
    }
    if stemsURL.Valid {
        v := stemsURL.String
        b.StemsURL = &v
    }
    if soldTo.Valid {
        v := soldTo.String
        b.SoldTo = &v
    }
    if soldAt.Valid {
        t := soldAt.Time.UTC()
        b.SoldAt = &t
    }
    return &b, nil
}

// Create inserts a new beat listing.  The caller supplies the generated
// beat id; availability defaults to 'available' and sales_count to 0 in
// the database.  The created_at timestamp is read back onto the model.
func (r *BeatRepo) Create(ctx context.Context, b *model.Beat) error {
    const q = `INSERT INTO beats
        (beat_id, name, genre, bpm, key_sig, mood,
         price_basica_cents, price_premium_cents, price_exclusiva_cents,
         audio_url, cover_url, wav_url, stems_url)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        b.BeatID, b.Name, b.Genre, b.BPM, b.KeySig, b.Mood,
        b.PriceBasicaCents, b.PricePremiumCents, b.PriceExclusivaCents,
        b.AudioURL, b.CoverURL, b.WavURL, b.StemsURL,
    )
    if err != nil {
        return err
    }
    const sel = `SELECT availability, sales_count, created_at FROM beats WHERE beat_id = ?`
    return r.db.QueryRowContext(ctx, sel, b.BeatID).Scan(&b.Availability, &b.SalesCount, &b.CreatedAt)
}

// GetByID returns a single beat by its id.  ErrBeatNotFound is returned
// when no row matches.
func (r *BeatRepo) GetByID(ctx context.Context, beatID string) (*model.Beat, error) {
    const q = `SELECT ` + beatColumns + ` FROM beats WHERE beat_id = ?`
    b, err := scanBeat(r.db.QueryRowContext(ctx, q, beatID))
    if err == sql.ErrNoRows {
        return nil, ErrBeatNotFound
    }
    if err != nil {
        return nil, err
    }
    return b, nil
}

// ListFilter describes the optional filtering and ordering applied by List.
// Zero values mean "no filter".  Sort accepts "recent" (default),
// "popular", "price-low" and "price-high".
type ListFilter struct {
    Genre  string
    Search string
    Sort   string
    Limit  int
    Offset int
}

// buildListQuery assembles the WHERE/ORDER BY clauses for List from a
// filter.  Only available beats are listed; sold-exclusive listings are
// hidden from the catalog.  It is a pure function so the clause logic
// can be tested without a database.
func buildListQuery(f ListFilter) (where string, orderBy string, args []interface{}) {
    conds := []string{`availability = 'available'`}
    if f.Genre != "" && f.Genre != "all" {
        conds = append(conds, `genre = ?`)
        args = append(args, f.Genre)
    }
    if f.Search != "" {
        conds = append(conds, `(name LIKE ? OR genre LIKE ? OR mood LIKE ?)`)
        pat := "%" + f.Search + "%"
        args = append(args, pat, pat, pat)
    }
    where = strings.Join(conds, " AND ")
    switch f.Sort {
    case "popular":
        orderBy = `sales_count DESC, created_at DESC`
    case "price-low":
        orderBy = `price_basica_cents ASC`
    case "price-high":
        orderBy = `price_basica_cents DESC`
    default: // "recent"
        orderBy = `created_at DESC`
    }
    return where, orderBy, args
}

// List returns available beats matching the filter along with the total
// number of matches (ignoring limit/offset) for pagination.
func (r *BeatRepo) List(ctx context.Context, f ListFilter) ([]model.Beat, int, error) {
    if f.Limit <= 0 {
        f.Limit = 50
    }
    if f.Offset < 0 {
        f.Offset = 0
    }
    where, orderBy, args := buildListQuery(f)

    var total int
    countQ := `SELECT COUNT(*) FROM beats WHERE ` + where
    if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    listQ := `SELECT ` + beatColumns + ` FROM beats WHERE ` + where +
        ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
    listArgs := append(append([]interface{}{}, args...), f.Limit, f.Offset)
    rows, err := r.db.QueryContext(ctx, listQ, listArgs...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    beats := make([]model.Beat, 0, f.Limit)
    for rows.Next() {
        b, err := scanBeat(rows)
        if err != nil {
            return nil, 0, err
        }
        beats = append(beats, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return beats, total, nil
}

// TryMarkSoldExclusive performs the exclusivity transition as a single
// atomic conditional update: availability moves to 'sold_exclusive' and
// sold_to/sold_at are set only if the beat is still 'available'.  The
// database row is the sole serialization point; two callers racing on the
// same beat id never both see the update applied.
//
// It returns (true, nil) when this call performed the transition,
// (false, nil) when the beat was already sold exclusively, and
// (false, ErrBeatNotFound) when no such beat exists.
func (r *BeatRepo) TryMarkSoldExclusive(ctx context.Context, beatID, buyerEmail string, soldAt time.Time) (bool, error) {
    const q = `UPDATE beats
               SET availability = 'sold_exclusive', sold_to = ?, sold_at = ?
               WHERE beat_id = ? AND availability = 'available'`
    res, err := r.db.ExecContext(ctx, q, buyerEmail, soldAt.UTC(), beatID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 1 {
        return true, nil
    }
    // No row changed: either the beat is already sold or it does not exist.
    var one int
    err = r.db.QueryRowContext(ctx, `SELECT 1 FROM beats WHERE beat_id = ?`, beatID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, ErrBeatNotFound
    }
    if err != nil {
        return false, err
    }
    return false, nil
}

// IncrementSaleCount bumps the sales counter for a beat.  It is a
// best-effort statistic: callers log failures and continue rather than
// failing a settlement over it.
func (r *BeatRepo) IncrementSaleCount(ctx context.Context, beatID string) error {
    const q = `UPDATE beats SET sales_count = sales_count + 1 WHERE beat_id = ?`
    res, err := r.db.ExecContext(ctx, q, beatID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrBeatNotFound
    }
    return nil
}

// Delete removes a beat listing.  This is an administrative operation;
// sales referencing the beat are kept for bookkeeping.
func (r *BeatRepo) Delete(ctx context.Context, beatID string) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM beats WHERE beat_id = ?`, beatID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBeatNotFound
    }
    return nil
}
