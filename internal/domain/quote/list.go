package quote

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fieldquote/quotesync/internal/domain/workflow"
)

// ListItem is the display projection shared by drafts and remote quotes.
// ID is either a local draft id or a server id; see IsLocalID.
type ListItem struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	ClientName      string          `json:"client_name"`
	ClientAddress   string          `json:"client_address"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	Total           decimal.Decimal `json:"total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Status          workflow.Status `json:"status"`
	ScheduledDate   *time.Time      `json:"scheduled_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Pending         bool            `json:"pending"`
	ItemCount       int             `json:"item_count,omitempty"`
}

func newListItem(id, owner string, d Data, createdAt time.Time, pending bool, items int) ListItem {
	li := ListItem{
		ID:              id,
		OwnerID:         owner,
		ClientName:      d.ClientName,
		ClientAddress:   d.ClientAddress,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		Total:           d.Total,
		DiscountPercent: d.DiscountPercent,
		TaxRate:         d.TaxRate,
		Status:          workflow.Normalize(d.Status),
		ScheduledDate:   d.ScheduledDate,
		CreatedAt:       createdAt,
		Pending:         pending,
	}
	if items >= 0 {
		li.ItemCount = items
	}
	return li
}

// Merge combines remote and pending entries keyed by id, pending winning on
// collision, sorted by CreatedAt descending.
func Merge(remote, pending []ListItem) []ListItem {
	byID := make(map[string]ListItem, len(remote)+len(pending))
	order := make([]string, 0, len(remote)+len(pending))
	put := func(li ListItem) {
		if _, ok := byID[li.ID]; !ok {
			order = append(order, li.ID)
		}
		byID[li.ID] = li
	}
	for _, li := range remote {
		put(li)
	}
	for _, li := range pending {
		put(li)
	}

	out := make([]ListItem, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	SortByRecency(out)
	return out
}

// UpsertInList replaces the entry with the same id or prepends item, then
// re-sorts by recency. The input slice is not modified.
func UpsertInList(list []ListItem, item ListItem) []ListItem {
	out := make([]ListItem, 0, len(list)+1)
	replaced := false
	for _, li := range list {
		if li.ID == item.ID {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, li)
	}
	if !replaced {
		out = append([]ListItem{item}, out...)
	}
	SortByRecency(out)
	return out
}

// SortByRecency sorts newest first, keeping input order on ties.
func SortByRecency(list []ListItem) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
