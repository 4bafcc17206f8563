package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Data is the quote header payload shared by drafts and remote quotes.
type Data struct {
	ClientName      string          `json:"client_name" validate:"required,max=200"`
	ClientAddress   string          `json:"client_address" validate:"max=500"`
	Latitude        *float64        `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64        `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Total           decimal.Decimal `json:"total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Status          string          `json:"status"`
	ScheduledDate   *time.Time      `json:"scheduled_date,omitempty"`
}

// Item is a quote line.
type Item struct {
	Description string                 `json:"description" validate:"required,max=500"`
	UnitPrice   decimal.Decimal        `json:"unit_price"`
	Quantity    decimal.Decimal        `json:"quantity"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// LineTotal is unit price times quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(it.Quantity)
}

// Remote is a quote header persisted on the remote store.
type Remote struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Data      Data      `json:"quote"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RemoteDetail is a remote header with its lines.
type RemoteDetail struct {
	Remote
	Items []Item `json:"items"`
}

// ListItem projects a remote quote for display.
func (r Remote) ListItem() ListItem {
	return newListItem(r.ID, r.OwnerID, r.Data, r.CreatedAt, false, -1)
}
