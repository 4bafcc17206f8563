package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
	"fieldquote/quotesync/internal/offline"
)

const (
	quotesTable     = "quotes"
	itemsTable      = "quote_items"
	transitionRPC   = "transition_quote_status"
	quoteColumns    = "id,user_id,client_name,client_address,latitude,longitude,total,discount_percent,tax_rate,status,scheduled_date,created_at,updated_at"
	quoteItemColumn = "quote_id,description,unit_price,quantity,metadata"
)

// rowID accepts uuid strings and integer keys alike.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("quote id: %w", err)
	}
	*id = rowID(n.String())
	return nil
}

type quoteRow struct {
	ID              rowID           `json:"id,omitempty"`
	UserID          string          `json:"user_id"`
	ClientName      string          `json:"client_name"`
	ClientAddress   string          `json:"client_address"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	Total           decimal.Decimal `json:"total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Status          string          `json:"status"`
	ScheduledDate   *time.Time      `json:"scheduled_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

func newQuoteRow(ownerID string, q quote.Data) quoteRow {
	return quoteRow{
		UserID:          ownerID,
		ClientName:      q.ClientName,
		ClientAddress:   q.ClientAddress,
		Latitude:        q.Latitude,
		Longitude:       q.Longitude,
		Total:           q.Total,
		DiscountPercent: q.DiscountPercent,
		TaxRate:         q.TaxRate,
		Status:          q.Status,
		ScheduledDate:   q.ScheduledDate,
	}
}

func (r quoteRow) remote() quote.Remote {
	out := quote.Remote{
		ID:      string(r.ID),
		OwnerID: r.UserID,
		Data: quote.Data{
			ClientName:      r.ClientName,
			ClientAddress:   r.ClientAddress,
			Latitude:        r.Latitude,
			Longitude:       r.Longitude,
			Total:           r.Total,
			DiscountPercent: r.DiscountPercent,
			TaxRate:         r.TaxRate,
			Status:          r.Status,
			ScheduledDate:   r.ScheduledDate,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.CreatedAt,
	}
	if r.UpdatedAt != nil {
		out.UpdatedAt = *r.UpdatedAt
	}
	return out
}

type itemRow struct {
	QuoteID     string                 `json:"quote_id"`
	Description string                 `json:"description"`
	UnitPrice   decimal.Decimal        `json:"unit_price"`
	Quantity    decimal.Decimal        `json:"quantity"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Quotes is the remote quote repository backed by the quotes and
// quote_items tables.
type Quotes struct {
	c   *Client
	now func() time.Time
}

var _ offline.Repository = (*Quotes)(nil)

func NewQuotes(c *Client) *Quotes {
	return &Quotes{c: c, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Quotes) InsertQuote(ctx context.Context, ownerID string, q quote.Data, createdAt time.Time) (quote.Remote, error) {
	row := newQuoteRow(ownerID, q)
	row.CreatedAt = createdAt.UTC()

	var out []quoteRow
	if err := s.c.Insert(ctx, quotesTable, []quoteRow{row}, &out); err != nil {
		return quote.Remote{}, err
	}
	if len(out) == 0 {
		return quote.Remote{}, fmt.Errorf("insert returned no rows")
	}
	return out[0].remote(), nil
}

func (s *Quotes) InsertItems(ctx context.Context, quoteID string, items []quote.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemRow{
			QuoteID:     quoteID,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Metadata:    it.Metadata,
		})
	}
	return s.c.Insert(ctx, itemsTable, rows, nil)
}

func (s *Quotes) DeleteQuote(ctx context.Context, quoteID string) error {
	q := url.Values{}
	q.Set("id", Eq(quoteID))
	return s.c.Delete(ctx, quotesTable, q)
}

func (s *Quotes) ListQuotes(ctx context.Context, ownerID string) ([]quote.Remote, error) {
	q := url.Values{}
	q.Set("select", quoteColumns)
	q.Set("user_id", Eq(ownerID))
	q.Set("order", "created_at.desc")

	var rows []quoteRow
	if err := s.c.Select(ctx, quotesTable, q, &rows); err != nil {
		return nil, err
	}
	out := make([]quote.Remote, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.remote())
	}
	return out, nil
}

func (s *Quotes) GetQuote(ctx context.Context, ownerID, quoteID string) (quote.RemoteDetail, error) {
	q := url.Values{}
	q.Set("select", quoteColumns)
	q.Set("id", Eq(quoteID))
	q.Set("user_id", Eq(ownerID))
	q.Set("limit", "1")

	var rows []quoteRow
	if err := s.c.Select(ctx, quotesTable, q, &rows); err != nil {
		return quote.RemoteDetail{}, err
	}
	if len(rows) == 0 {
		return quote.RemoteDetail{}, fmt.Errorf("%w: %s", offline.ErrQuoteNotFound, quoteID)
	}

	iq := url.Values{}
	iq.Set("select", quoteItemColumn)
	iq.Set("quote_id", Eq(quoteID))
	iq.Set("order", "id.asc")

	var items []itemRow
	if err := s.c.Select(ctx, itemsTable, iq, &items); err != nil {
		return quote.RemoteDetail{}, err
	}
	det := quote.RemoteDetail{Remote: rows[0].remote(), Items: make([]quote.Item, 0, len(items))}
	for _, it := range items {
		det.Items = append(det.Items, quote.Item{
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Metadata:    it.Metadata,
		})
	}
	return det, nil
}

// UpdateQuote patches the header and replaces the items. New lines are
// inserted before the old ones are deleted, so a failed insert leaves the
// quote with its previous lines.
func (s *Quotes) UpdateQuote(ctx context.Context, quoteID string, q quote.Data, items []quote.Item) error {
	patch := map[string]interface{}{
		"client_name":      q.ClientName,
		"client_address":   q.ClientAddress,
		"latitude":         q.Latitude,
		"longitude":        q.Longitude,
		"total":            q.Total,
		"discount_percent": q.DiscountPercent,
		"tax_rate":         q.TaxRate,
		"scheduled_date":   q.ScheduledDate,
		"updated_at":       s.now(),
	}
	if err := s.c.Update(ctx, quotesTable, idFilter(quoteID), patch); err != nil {
		return err
	}

	sq := url.Values{}
	sq.Set("select", "id")
	sq.Set("quote_id", Eq(quoteID))
	var old []struct {
		ID rowID `json:"id"`
	}
	if err := s.c.Select(ctx, itemsTable, sq, &old); err != nil {
		return fmt.Errorf("read quote items: %w", err)
	}
	if err := s.InsertItems(ctx, quoteID, items); err != nil {
		return err
	}
	if len(old) == 0 {
		return nil
	}
	ids := make([]string, 0, len(old))
	for _, r := range old {
		ids = append(ids, string(r.ID))
	}
	dq := url.Values{}
	dq.Set("quote_id", Eq(quoteID))
	dq.Set("id", In(ids...))
	if err := s.c.Delete(ctx, itemsTable, dq); err != nil {
		return fmt.Errorf("clear old quote items: %w", err)
	}
	return nil
}

func (s *Quotes) UpdateSchedule(ctx context.Context, quoteID string, date *time.Time) error {
	patch := map[string]interface{}{
		"scheduled_date": date,
		"updated_at":     s.now(),
	}
	return s.c.Update(ctx, quotesTable, idFilter(quoteID), patch)
}

// TransitionStatus goes through a database function so the server can audit
// and enforce the move.
func (s *Quotes) TransitionStatus(ctx context.Context, quoteID string, next workflow.Status, mode workflow.Mode) error {
	payload := map[string]interface{}{
		"p_quote_id":    quoteID,
		"p_next_status": string(next),
		"p_mode":        string(mode),
	}
	return s.c.RPC(ctx, transitionRPC, payload, nil)
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", Eq(id))
	return q
}
