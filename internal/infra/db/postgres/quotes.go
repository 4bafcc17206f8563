package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
	"fieldquote/quotesync/internal/offline"
)

// Numerics cross the wire as text so no precision is lost to float.
const selectQuote = `
SELECT id::text, user_id, client_name, client_address, latitude, longitude,
       total::text, discount_percent::text, tax_rate::text, status,
       scheduled_date, created_at, updated_at
FROM quotes`

// Quotes is the remote quote repository on a direct Postgres connection.
type Quotes struct {
	db *DB
}

var _ offline.Repository = (*Quotes)(nil)

func NewQuotes(db *DB) *Quotes { return &Quotes{db: db} }

func scanQuote(row pgx.Row) (quote.Remote, error) {
	var (
		r                        quote.Remote
		total, discount, taxRate string
	)
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Data.ClientName, &r.Data.ClientAddress, &r.Data.Latitude, &r.Data.Longitude,
		&total, &discount, &taxRate, &r.Data.Status,
		&r.Data.ScheduledDate, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return quote.Remote{}, err
	}
	if r.Data.Total, err = decimal.NewFromString(total); err != nil {
		return quote.Remote{}, fmt.Errorf("total: %w", err)
	}
	if r.Data.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return quote.Remote{}, fmt.Errorf("discount_percent: %w", err)
	}
	if r.Data.TaxRate, err = decimal.NewFromString(taxRate); err != nil {
		return quote.Remote{}, fmt.Errorf("tax_rate: %w", err)
	}
	return r, nil
}

func (s *Quotes) InsertQuote(ctx context.Context, ownerID string, q quote.Data, createdAt time.Time) (quote.Remote, error) {
	row := s.db.Pool.QueryRow(ctx, `
INSERT INTO quotes (user_id, client_name, client_address, latitude, longitude,
                    total, discount_percent, tax_rate, status, scheduled_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8::text::numeric, $9, $10, $11, $11)
RETURNING id::text, user_id, client_name, client_address, latitude, longitude,
          total::text, discount_percent::text, tax_rate::text, status,
          scheduled_date, created_at, updated_at`,
		ownerID, q.ClientName, q.ClientAddress, q.Latitude, q.Longitude,
		q.Total.String(), q.DiscountPercent.String(), q.TaxRate.String(), q.Status, q.ScheduledDate, createdAt.UTC(),
	)
	return scanQuote(row)
}

func (s *Quotes) InsertItems(ctx context.Context, quoteID string, items []quote.Item) error {
	return insertItems(ctx, s.db.Pool, quoteID, items)
}

type execer interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func insertItems(ctx context.Context, conn execer, quoteID string, items []quote.Item) error {
	if len(items) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, it := range items {
		meta := it.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		b.Queue(`
INSERT INTO quote_items (quote_id, description, unit_price, quantity, metadata)
VALUES ($1::uuid, $2, $3::text::numeric, $4::text::numeric, $5)`,
			quoteID, it.Description, it.UnitPrice.String(), it.Quantity.String(), meta)
	}
	return conn.SendBatch(ctx, b).Close()
}

func (s *Quotes) DeleteQuote(ctx context.Context, quoteID string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1::uuid`, quoteID)
	return err
}

func (s *Quotes) ListQuotes(ctx context.Context, ownerID string) ([]quote.Remote, error) {
	rows, err := s.db.Pool.Query(ctx, selectQuote+` WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quote.Remote
	for rows.Next() {
		r, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Quotes) GetQuote(ctx context.Context, ownerID, quoteID string) (quote.RemoteDetail, error) {
	r, err := scanQuote(s.db.Pool.QueryRow(ctx, selectQuote+` WHERE id::text = $1 AND user_id = $2`, quoteID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return quote.RemoteDetail{}, fmt.Errorf("%w: %s", offline.ErrQuoteNotFound, quoteID)
	}
	if err != nil {
		return quote.RemoteDetail{}, err
	}

	rows, err := s.db.Pool.Query(ctx, `
SELECT description, unit_price::text, quantity::text, metadata
FROM quote_items WHERE quote_id = $1::uuid ORDER BY id`, r.ID)
	if err != nil {
		return quote.RemoteDetail{}, err
	}
	defer rows.Close()

	det := quote.RemoteDetail{Remote: r, Items: []quote.Item{}}
	for rows.Next() {
		var (
			it              quote.Item
			price, quantity string
		)
		if err := rows.Scan(&it.Description, &price, &quantity, &it.Metadata); err != nil {
			return quote.RemoteDetail{}, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return quote.RemoteDetail{}, fmt.Errorf("unit_price: %w", err)
		}
		if it.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return quote.RemoteDetail{}, fmt.Errorf("quantity: %w", err)
		}
		det.Items = append(det.Items, it)
	}
	return det, rows.Err()
}

// UpdateQuote rewrites the header and replaces the items in one transaction.
func (s *Quotes) UpdateQuote(ctx context.Context, quoteID string, q quote.Data, items []quote.Item) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE quotes SET client_name = $2, client_address = $3, latitude = $4, longitude = $5,
       total = $6::text::numeric, discount_percent = $7::text::numeric, tax_rate = $8::text::numeric,
       scheduled_date = $9, updated_at = now()
WHERE id = $1::uuid`,
			quoteID, q.ClientName, q.ClientAddress, q.Latitude, q.Longitude,
			q.Total.String(), q.DiscountPercent.String(), q.TaxRate.String(), q.ScheduledDate,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", offline.ErrQuoteNotFound, quoteID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1::uuid`, quoteID); err != nil {
			return err
		}
		return insertItems(ctx, tx, quoteID, items)
	})
}

func (s *Quotes) UpdateSchedule(ctx context.Context, quoteID string, date *time.Time) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE quotes SET scheduled_date = $2, updated_at = now() WHERE id = $1::uuid`, quoteID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", offline.ErrQuoteNotFound, quoteID)
	}
	return nil
}

// TransitionStatus updates the status and appends to the history table.
func (s *Quotes) TransitionStatus(ctx context.Context, quoteID string, next workflow.Status, mode workflow.Mode) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		var from string
		err := tx.QueryRow(ctx, `SELECT status FROM quotes WHERE id = $1::uuid FOR UPDATE`, quoteID).Scan(&from)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", offline.ErrQuoteNotFound, quoteID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE quotes SET status = $2, updated_at = now() WHERE id = $1::uuid`, quoteID, string(next)); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO quote_status_history (quote_id, from_status, to_status, mode)
VALUES ($1::uuid, $2, $3, $4)`, quoteID, from, string(next), string(mode))
		return err
	})
}
