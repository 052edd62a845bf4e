package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/homerecords/beatstore/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a duplicate key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// SaleRepo provides data access to the sales table, the append-only
// ledger of settled payments.  Rows are keyed by payment intent id so a
// retried confirmation cannot record the same payment twice: the
// duplicate insert is rejected by the primary key and reported to the
// caller as "already recorded" rather than as an error.
type SaleRepo struct {
    db *sql.DB
}

// NewSaleRepo returns a new SaleRepo bound to the given database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// InsertIfAbsent appends a sale row keyed by its payment intent id.  It
// returns (true, nil) when the row was inserted by this call and
// (false, nil) when a row for the same intent already exists.  The
// uniqueness check rides the primary key, so concurrent inserts for the
// same intent resolve to exactly one inserted row with no application
// level locking.
func (r *SaleRepo) InsertIfAbsent(ctx context.Context, s *model.Sale) (bool, error) {
    const q = `INSERT INTO sales
        (payment_intent_id, beat_id, license_type, buyer_email, amount_cents, currency, exclusive, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        s.PaymentIntentID, s.BeatID, s.LicenseType, s.BuyerEmail,
        s.AmountCents, s.Currency, s.Exclusive, s.CreatedAt.UTC(),
    )
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
            return false, nil
        }
        return false, err
    }
    return true, nil
}

// GetByIntentID returns the sale recorded for a payment intent, or
// ErrSaleNotFound when no settlement has been recorded for it.
func (r *SaleRepo) GetByIntentID(ctx context.Context, paymentIntentID string) (*model.Sale, error) {
    const q = `SELECT payment_intent_id, beat_id, license_type, buyer_email,
                      amount_cents, currency, exclusive, created_at
               FROM sales WHERE payment_intent_id = ?`
    var s model.Sale
    err := r.db.QueryRowContext(ctx, q, paymentIntentID).Scan(
        &s.PaymentIntentID, &s.BeatID, &s.LicenseType, &s.BuyerEmail,
        &s.AmountCents, &s.Currency, &s.Exclusive, &s.CreatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrSaleNotFound
    }
    if err != nil {
        return nil, err
    }
    s.CreatedAt = s.CreatedAt.UTC()
    return &s, nil
}

// ListRecent returns up to limit sales ordered newest first.  This is a
// reporting read path; it never participates in settlement.
func (r *SaleRepo) ListRecent(ctx context.Context, limit int) ([]model.Sale, error) {
    if limit <= 0 {
        limit = 100
    }
    const q = `SELECT payment_intent_id, beat_id, license_type, buyer_email,
                      amount_cents, currency, exclusive, created_at
               FROM sales ORDER BY created_at DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    sales := make([]model.Sale, 0, limit)
    for rows.Next() {
        var s model.Sale
        if err := rows.Scan(
            &s.PaymentIntentID, &s.BeatID, &s.LicenseType, &s.BuyerEmail,
            &s.AmountCents, &s.Currency, &s.Exclusive, &s.CreatedAt,
        ); err != nil {
            return nil, err
        }
        s.CreatedAt = s.CreatedAt.UTC()
        sales = append(sales, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return sales, nil
}
