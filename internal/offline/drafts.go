package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/session"
	"fieldquote/quotesync/internal/domain/workflow"
	"fieldquote/quotesync/internal/infra/kv"
)

const (
	draftsKeyPrefix = "quote_drafts:"
	draftOwnersKey  = "quote_drafts/owners"
)

func draftsKey(ownerID string) string { return draftsKeyPrefix + ownerID }

// DraftQueue holds quotes authored on the device that are not yet on the
// remote store. Each owner has its own partition in the store; every
// operation reads the partition whole and writes it back whole. New drafts go
// to the head, so the queue is newest first.
type DraftQueue struct {
	store kv.Store
	clock Clock
	newID func(time.Time) string

	// serializes each read-modify-write within the process; never held
	// across remote calls
	mu sync.Mutex
}

func NewDraftQueue(store kv.Store, clock Clock) *DraftQueue {
	if clock == nil {
		clock = SystemClock
	}
	return &DraftQueue{store: store, clock: clock, newID: quote.NewLocalID}
}

func (q *DraftQueue) load(ctx context.Context, ownerID string) ([]quote.Draft, error) {
	raw, ok, err := q.store.Get(ctx, draftsKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("read drafts: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var drafts []quote.Draft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("decode drafts: %w", err)
	}
	return drafts, nil
}

func (q *DraftQueue) save(ctx context.Context, ownerID string, drafts []quote.Draft) error {
	if drafts == nil {
		drafts = []quote.Draft{}
	}
	raw, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := q.store.Set(ctx, draftsKey(ownerID), string(raw)); err != nil {
		return fmt.Errorf("write drafts: %w", err)
	}
	return q.index(ctx, ownerID, len(drafts) > 0)
}

func (q *DraftQueue) owners(ctx context.Context) ([]string, error) {
	raw, ok, err := q.store.Get(ctx, draftOwnersKey)
	if err != nil {
		return nil, fmt.Errorf("read draft owners: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var owners []string
	if err := json.Unmarshal([]byte(raw), &owners); err != nil {
		return nil, fmt.Errorf("decode draft owners: %w", err)
	}
	return owners, nil
}

// index keeps the owner list in step with non-empty partitions.
func (q *DraftQueue) index(ctx context.Context, ownerID string, present bool) error {
	owners, err := q.owners(ctx)
	if err != nil {
		return err
	}
	pos := -1
	for i, o := range owners {
		if o == ownerID {
			pos = i
			break
		}
	}
	switch {
	case present && pos < 0:
		owners = append(owners, ownerID)
	case !present && pos >= 0:
		owners = append(owners[:pos], owners[pos+1:]...)
	default:
		return nil
	}
	raw, err := json.Marshal(owners)
	if err != nil {
		return fmt.Errorf("encode draft owners: %w", err)
	}
	if err := q.store.Set(ctx, draftOwnersKey, string(raw)); err != nil {
		return fmt.Errorf("write draft owners: %w", err)
	}
	return nil
}

func find(drafts []quote.Draft, localID string) int {
	for i, d := range drafts {
		if d.LocalID == localID {
			return i
		}
	}
	return -1
}

// Enqueue stores a new draft at the head of the owner's queue.
func (q *DraftQueue) Enqueue(ctx context.Context, ownerID string, data quote.Data, items []quote.Item) (quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.ListItem{}, err
	}
	if err := quote.Validate(data, items); err != nil {
		return quote.ListItem{}, err
	}
	data.Status = string(workflow.Normalize(data.Status))
	data = quote.FillTotal(data, items)

	q.mu.Lock()
	defer q.mu.Unlock()

	drafts, err := q.load(ctx, ownerID)
	if err != nil {
		return quote.ListItem{}, err
	}
	now := q.clock.Now()
	d := quote.Draft{
		LocalID:   q.newID(now),
		OwnerID:   ownerID,
		CreatedAt: now,
		Quote:     data,
		Items:     items,
	}
	drafts = append([]quote.Draft{d}, drafts...)
	if err := q.save(ctx, ownerID, drafts); err != nil {
		return quote.ListItem{}, err
	}
	return d.ListItem(), nil
}

// mutate applies fn to the owner's draft localID. It returns nil when the
// draft does not exist.
func (q *DraftQueue) mutate(ctx context.Context, ownerID, localID string, fn func(*quote.Draft)) (*quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	drafts, err := q.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	i := find(drafts, localID)
	if i < 0 {
		return nil, nil
	}
	fn(&drafts[i])
	if err := q.save(ctx, ownerID, drafts); err != nil {
		return nil, err
	}
	li := drafts[i].ListItem()
	return &li, nil
}

// Update replaces the quote payload and items of a draft. An empty status
// keeps the current one.
func (q *DraftQueue) Update(ctx context.Context, ownerID, localID string, data quote.Data, items []quote.Item) (*quote.ListItem, error) {
	if err := quote.Validate(data, items); err != nil {
		return nil, err
	}
	return q.mutate(ctx, ownerID, localID, func(d *quote.Draft) {
		if data.Status == "" {
			data.Status = d.Quote.Status
		}
		data.Status = string(workflow.Normalize(data.Status))
		d.Quote = quote.FillTotal(data, items)
		d.Items = items
	})
}

// UpdateSchedule sets or clears the scheduled date of a draft.
func (q *DraftQueue) UpdateSchedule(ctx context.Context, ownerID, localID string, date *time.Time) (*quote.ListItem, error) {
	return q.mutate(ctx, ownerID, localID, func(d *quote.Draft) {
		next := d.Quote
		next.ScheduledDate = date
		d.Quote = next
	})
}

// UpdateStatus stores the normalized status on a draft.
func (q *DraftQueue) UpdateStatus(ctx context.Context, ownerID, localID string, status workflow.Status) (*quote.ListItem, error) {
	return q.mutate(ctx, ownerID, localID, func(d *quote.Draft) {
		next := d.Quote
		next.Status = string(workflow.Normalize(string(status)))
		d.Quote = next
	})
}

// Remove deletes a draft. With an owner only that owner's partition is
// touched; without one every partition is searched for localID. Removing an
// unknown draft is not an error.
func (q *DraftQueue) Remove(ctx context.Context, localID, ownerID string) error {
	_, err := q.remove(ctx, localID, ownerID)
	return err
}

func (q *DraftQueue) remove(ctx context.Context, localID, ownerID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	owners := []string{ownerID}
	if ownerID == "" {
		var err error
		if owners, err = q.owners(ctx); err != nil {
			return false, err
		}
	}
	for _, o := range owners {
		drafts, err := q.load(ctx, o)
		if err != nil {
			return false, err
		}
		i := find(drafts, localID)
		if i < 0 {
			continue
		}
		drafts = append(drafts[:i], drafts[i+1:]...)
		return true, q.save(ctx, o, drafts)
	}
	return false, nil
}

// settle dequeues a promoted draft if it still equals snap. When it was
// edited meanwhile the stored draft is tagged with remoteID and returned so
// the edit can be pushed to the promoted quote. found is false when the
// draft was removed during the sync.
func (q *DraftQueue) settle(ctx context.Context, snap quote.Draft, remoteID string) (next *quote.Draft, found bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	drafts, err := q.load(ctx, snap.OwnerID)
	if err != nil {
		return nil, false, err
	}
	i := find(drafts, snap.LocalID)
	if i < 0 {
		return nil, false, nil
	}
	same, err := sameDraft(drafts[i], snap)
	if err != nil {
		return nil, true, err
	}
	if same {
		drafts = append(drafts[:i], drafts[i+1:]...)
		return nil, true, q.save(ctx, snap.OwnerID, drafts)
	}
	drafts[i].RemoteID = remoteID
	if err := q.save(ctx, snap.OwnerID, drafts); err != nil {
		return nil, true, err
	}
	cur := drafts[i]
	return &cur, true, nil
}

func sameDraft(a, b quote.Draft) (bool, error) {
	a.RemoteID, b.RemoteID = "", ""
	ra, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("encode draft: %w", err)
	}
	rb, err := json.Marshal(b)
	if err != nil {
		return false, fmt.Errorf("encode draft: %w", err)
	}
	return bytes.Equal(ra, rb), nil
}

// Detail returns the draft with its items, or nil when not found. The owner
// may be empty, see Remove.
func (q *DraftQueue) Detail(ctx context.Context, localID, ownerID string) (*quote.Detail, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	owners := []string{ownerID}
	if ownerID == "" {
		var err error
		if owners, err = q.owners(ctx); err != nil {
			return nil, err
		}
	}
	for _, o := range owners {
		drafts, err := q.load(ctx, o)
		if err != nil {
			return nil, err
		}
		if i := find(drafts, localID); i >= 0 {
			det := drafts[i].Detail()
			return &det, nil
		}
	}
	return nil, nil
}

// ListFor projects the owner's drafts, newest first.
func (q *DraftQueue) ListFor(ctx context.Context, ownerID string) ([]quote.ListItem, error) {
	drafts, err := q.Pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]quote.ListItem, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, d.ListItem())
	}
	return out, nil
}

// Pending returns a snapshot of the owner's drafts in queue order.
func (q *DraftQueue) Pending(ctx context.Context, ownerID string) ([]quote.Draft, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx, ownerID)
}

// Count returns the number of drafts queued for the owner.
func (q *DraftQueue) Count(ctx context.Context, ownerID string) (int, error) {
	drafts, err := q.Pending(ctx, ownerID)
	return len(drafts), err
}
