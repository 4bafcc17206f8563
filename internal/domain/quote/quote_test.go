package quote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldquote/quotesync/internal/domain/workflow"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func item(id string, minutes int) ListItem {
	return ListItem{ID: id, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func ids(list []ListItem) []string {
	out := make([]string, 0, len(list))
	for _, li := range list {
		out = append(out, li.ID)
	}
	return out
}

func TestLocalID(t *testing.T) {
	id := NewLocalID(base)
	assert.True(t, IsLocalID(id))
	assert.Regexp(t, `^local-\d+-[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, NewLocalID(base))

	assert.False(t, IsLocalID("8d4f1c9e-1b2a-4c3d-9e8f-000000000001"))
	assert.False(t, IsLocalID("42"))
}

func TestMerge_SortedByRecency(t *testing.T) {
	tests := []struct {
		name    string
		remote  []ListItem
		pending []ListItem
		want    []string
	}{
		{"both empty", nil, nil, []string{}},
		{"only remote", []ListItem{item("a", 1), item("b", 3)}, nil, []string{"b", "a"}},
		{"only pending", nil, []ListItem{item("local-1", 2), item("local-2", 5)}, []string{"local-2", "local-1"}},
		{"interleaved", []ListItem{item("a", 1), item("b", 4)}, []ListItem{item("local-1", 2), item("local-2", 6)}, []string{"local-2", "b", "local-1", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.remote, tt.pending)
			assert.Equal(t, tt.want, ids(got))
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
			}
		})
	}
}

func TestMerge_PendingWinsOnCollision(t *testing.T) {
	remote := item("x", 1)
	remote.ClientName = "remote"
	pending := item("x", 1)
	pending.ClientName = "pending"

	got := Merge([]ListItem{remote}, []ListItem{pending})
	require.Len(t, got, 1)
	assert.Equal(t, "pending", got[0].ClientName)
}

func TestUpsertInList(t *testing.T) {
	list := []ListItem{item("b", 5), item("a", 1)}

	added := UpsertInList(list, item("c", 3))
	assert.Equal(t, []string{"b", "c", "a"}, ids(added))
	assert.Equal(t, []string{"b", "a"}, ids(list))

	changed := item("a", 1)
	changed.ClientName = "renamed"
	replaced := UpsertInList(added, changed)
	assert.Equal(t, []string{"b", "c", "a"}, ids(replaced))
	assert.Equal(t, "renamed", replaced[2].ClientName)

	newest := UpsertInList(nil, item("z", 0))
	assert.Equal(t, []string{"z"}, ids(newest))
}

func TestDraftProjection(t *testing.T) {
	d := Draft{
		LocalID:   "local-1000-ab12",
		OwnerID:   "owner-1",
		CreatedAt: base,
		Quote:     Data{ClientName: "ACME", Status: "Pagado", Total: decimal.NewFromInt(10)},
		Items:     []Item{{Description: "cable", UnitPrice: decimal.NewFromInt(5), Quantity: decimal.NewFromInt(2)}},
	}
	li := d.ListItem()
	assert.Equal(t, "local-1000-ab12", li.ID)
	assert.True(t, li.Pending)
	assert.Equal(t, workflow.StatusPaid, li.Status)
	assert.Equal(t, 1, li.ItemCount)

	det := d.Detail()
	assert.Equal(t, li, det.ListItem)
	det.Items[0].Description = "changed"
	assert.Equal(t, "cable", d.Items[0].Description)

	r := Remote{ID: "42", OwnerID: "owner-1", Data: d.Quote, CreatedAt: base}
	assert.False(t, r.ListItem().Pending)
}

func TestComputeTotals(t *testing.T) {
	items := []Item{
		{Description: "outlet", UnitPrice: decimal.RequireFromString("12.50"), Quantity: decimal.NewFromInt(4)},
		{Description: "labour", UnitPrice: decimal.NewFromInt(100), Quantity: decimal.RequireFromString("1.5")},
	}
	got := ComputeTotals(items, decimal.NewFromInt(10), decimal.NewFromInt(16))

	assert.Equal(t, "200", got.Subtotal.String())
	assert.Equal(t, "20", got.DiscountAmount.String())
	assert.Equal(t, "28.8", got.TaxAmount.String())
	assert.Equal(t, "208.8", got.Total.String())
}

func TestFillTotal(t *testing.T) {
	items := []Item{{Description: "x", UnitPrice: decimal.NewFromInt(3), Quantity: decimal.NewFromInt(3)}}

	filled := FillTotal(Data{ClientName: "c"}, items)
	assert.Equal(t, "9", filled.Total.String())

	kept := FillTotal(Data{ClientName: "c", Total: decimal.NewFromInt(1)}, items)
	assert.Equal(t, "1", kept.Total.String())
}

func TestValidate(t *testing.T) {
	lat := 19.43
	bad := 123.0
	ok := Data{ClientName: "ACME", Latitude: &lat}
	line := Item{Description: "cable", UnitPrice: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1)}

	assert.NoError(t, Validate(ok, []Item{line}))
	assert.ErrorIs(t, Validate(Data{}, nil), ErrInvalid)
	assert.ErrorIs(t, Validate(Data{ClientName: "x", Latitude: &bad}, nil), ErrInvalid)
	assert.ErrorIs(t, Validate(Data{ClientName: "x", Total: decimal.NewFromInt(-1)}, nil), ErrInvalid)
	assert.ErrorIs(t, Validate(Data{ClientName: "x", DiscountPercent: decimal.NewFromInt(101)}, nil), ErrInvalid)
	assert.ErrorIs(t, Validate(ok, []Item{{Description: "x", Quantity: decimal.Zero}}), ErrInvalid)
	assert.ErrorIs(t, Validate(ok, []Item{{Quantity: decimal.NewFromInt(1)}}), ErrInvalid)
}
