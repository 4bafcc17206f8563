package offline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
	"fieldquote/quotesync/internal/infra/kv"
)

func sampleData(client string) quote.Data {
	return quote.Data{
		ClientName:      client,
		ClientAddress:   "Calle 5 #12",
		DiscountPercent: decimal.Zero,
		TaxRate:         decimal.NewFromInt(16),
		Status:          "borrador",
	}
}

func sampleItems() []quote.Item {
	return []quote.Item{
		{Description: "Breaker 20A", UnitPrice: decimal.NewFromInt(150), Quantity: decimal.NewFromInt(2), Metadata: map[string]interface{}{"sku": "BR-20"}},
	}
}

func newQueue(t *testing.T) (*DraftQueue, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	return NewDraftQueue(store, newFakeClock()), store
}

func TestDraftQueue_EnqueueNewestFirst(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	first, err := q.Enqueue(ctx, "u1", sampleData("first"), sampleItems())
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "u1", sampleData("second"), nil)
	require.NoError(t, err)

	assert.True(t, quote.IsLocalID(first.ID))
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.Pending)
	assert.Equal(t, workflow.StatusDraft, first.Status)
	assert.Equal(t, "348", first.Total.String(), "total computed from items with tax")

	list, err := q.ListFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDraftQueue_Preconditions(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	_, err := q.Enqueue(ctx, "", sampleData("x"), nil)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = q.Enqueue(ctx, "u1", quote.Data{}, nil)
	assert.ErrorIs(t, err, quote.ErrInvalid)

	_, err = q.ListFor(ctx, " ")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = q.UpdateStatus(ctx, "", "local-1", workflow.StatusSent)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDraftQueue_Conservation(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	other, err := q.Enqueue(ctx, "u2", sampleData("other"), sampleItems())
	require.NoError(t, err)

	count := func(owner string) int {
		n, err := q.Count(ctx, owner)
		require.NoError(t, err)
		return n
	}

	a, err := q.Enqueue(ctx, "u1", sampleData("a"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count("u1"))

	_, err = q.Update(ctx, "u1", a.ID, sampleData("a2"), sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 1, count("u1"))

	require.NoError(t, q.Remove(ctx, a.ID, "u1"))
	assert.Equal(t, 0, count("u1"))

	det, err := q.Detail(ctx, other.ID, "u2")
	require.NoError(t, err)
	require.NotNil(t, det)
	assert.Equal(t, "other", det.Quote.ClientName)
	assert.Equal(t, 1, count("u2"))
}

func TestDraftQueue_MutatorsPreserveIdentity(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	li, err := q.Enqueue(ctx, "u1", sampleData("orig"), sampleItems())
	require.NoError(t, err)

	updated, err := q.Update(ctx, "u1", li.ID, quote.Data{ClientName: "renamed", Status: ""}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, li.ID, updated.ID)
	assert.Equal(t, "u1", updated.OwnerID)
	assert.True(t, li.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "renamed", updated.ClientName)
	assert.Equal(t, workflow.StatusDraft, updated.Status, "empty status keeps current")

	when := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	scheduled, err := q.UpdateSchedule(ctx, "u1", li.ID, &when)
	require.NoError(t, err)
	require.NotNil(t, scheduled.ScheduledDate)
	assert.True(t, when.Equal(*scheduled.ScheduledDate))
	assert.Equal(t, "renamed", scheduled.ClientName)

	cleared, err := q.UpdateSchedule(ctx, "u1", li.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.ScheduledDate)

	st, err := q.UpdateStatus(ctx, "u1", li.ID, workflow.Status("Enviada"))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSent, st.Status)
	assert.True(t, li.CreatedAt.Equal(st.CreatedAt))
}

func TestDraftQueue_UnknownDraft(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	li, err := q.UpdateStatus(ctx, "u1", "local-404", workflow.StatusSent)
	assert.NoError(t, err)
	assert.Nil(t, li)

	det, err := q.Detail(ctx, "local-404", "")
	assert.NoError(t, err)
	assert.Nil(t, det)

	assert.NoError(t, q.Remove(ctx, "local-404", ""))
}

func TestDraftQueue_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	mine, err := q.Enqueue(ctx, "u1", sampleData("mine"), nil)
	require.NoError(t, err)

	det, err := q.Detail(ctx, mine.ID, "u2")
	require.NoError(t, err)
	assert.Nil(t, det, "other owner must not see the draft")

	li, err := q.UpdateStatus(ctx, "u2", mine.ID, workflow.StatusSent)
	require.NoError(t, err)
	assert.Nil(t, li)

	require.NoError(t, q.Remove(ctx, mine.ID, "u2"))
	n, err := q.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "remove scoped to another owner is a no-op")

	det, err = q.Detail(ctx, mine.ID, "")
	require.NoError(t, err)
	require.NotNil(t, det, "owner-less lookup finds the draft by id")
	assert.Equal(t, "u1", det.OwnerID)

	require.NoError(t, q.Remove(ctx, mine.ID, ""))
	n, err = q.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDraftQueue_PartitionedStorage(t *testing.T) {
	ctx := context.Background()
	q, store := newQueue(t)

	_, err := q.Enqueue(ctx, "u1", sampleData("a"), nil)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "u2", sampleData("b"), nil)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "quote_drafts:u1")
	require.NoError(t, err)
	assert.True(t, ok)

	owners, err := q.owners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, owners)

	list, err := q.ListFor(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, q.Remove(ctx, list[0].ID, "u1"))

	owners, err = q.owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, owners)
}

func TestDraftQueue_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	q := NewDraftQueue(failingStore{err: boom}, newFakeClock())

	_, err := q.Enqueue(context.Background(), "u1", sampleData("a"), nil)
	assert.ErrorIs(t, err, boom)

	_, err = q.ListFor(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, q.Remove(context.Background(), "local-1", ""), boom)
}

func TestDraftQueue_CorruptPartition(t *testing.T) {
	ctx := context.Background()
	q, store := newQueue(t)
	require.NoError(t, store.Set(ctx, "quote_drafts:u1", "{not json"))

	_, err := q.ListFor(ctx, "u1")
	assert.Error(t, err)
}

func TestDraftQueue_RoundTripsItems(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	li, err := q.Enqueue(ctx, "u1", sampleData("a"), sampleItems())
	require.NoError(t, err)

	det, err := q.Detail(ctx, li.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, det)
	require.Len(t, det.Items, 1)
	assert.Equal(t, "Breaker 20A", det.Items[0].Description)
	assert.Equal(t, "150", det.Items[0].UnitPrice.String())
	assert.Equal(t, "BR-20", det.Items[0].Metadata["sku"])
}
