package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type transition struct {
	id   string
	next workflow.Status
	mode workflow.Mode
}

// fakeRepo is an in-memory Repository with injectable failures.
type fakeRepo struct {
	mu     sync.Mutex
	seq    int
	quotes map[string]quote.Remote
	items  map[string][]quote.Item

	insertQuoteErr func(q quote.Data) error
	insertItemsErr func(quoteID string) error
	deleteErr      error
	listErr        error
	updateErr      error

	// when set, InsertQuote signals entered and waits for release
	entered chan struct{}
	release chan struct{}

	insertCalls int
	deleteCalls int
	transitions []transition
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[string]quote.Remote{}, items: map[string][]quote.Item{}}
}

func (r *fakeRepo) InsertQuote(ctx context.Context, ownerID string, q quote.Data, createdAt time.Time) (quote.Remote, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	if r.insertQuoteErr != nil {
		if err := r.insertQuoteErr(q); err != nil {
			return quote.Remote{}, err
		}
	}
	r.seq++
	rq := quote.Remote{ID: fmt.Sprintf("srv-%d", r.seq), OwnerID: ownerID, Data: q, CreatedAt: createdAt, UpdatedAt: createdAt}
	r.quotes[rq.ID] = rq
	return rq, nil
}

func (r *fakeRepo) InsertItems(ctx context.Context, quoteID string, items []quote.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertItemsErr != nil {
		if err := r.insertItemsErr(quoteID); err != nil {
			return err
		}
	}
	r.items[quoteID] = append(r.items[quoteID], items...)
	return nil
}

func (r *fakeRepo) DeleteQuote(ctx context.Context, quoteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.quotes, quoteID)
	delete(r.items, quoteID)
	return nil
}

func (r *fakeRepo) ListQuotes(ctx context.Context, ownerID string) ([]quote.Remote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []quote.Remote
	for _, q := range r.quotes {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetQuote(ctx context.Context, ownerID, quoteID string) (quote.RemoteDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok || q.OwnerID != ownerID {
		return quote.RemoteDetail{}, fmt.Errorf("%w: %s", ErrQuoteNotFound, quoteID)
	}
	return quote.RemoteDetail{Remote: q, Items: r.items[quoteID]}, nil
}

func (r *fakeRepo) UpdateQuote(ctx context.Context, quoteID string, q quote.Data, items []quote.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	rq, ok := r.quotes[quoteID]
	if !ok {
		return ErrQuoteNotFound
	}
	rq.Data = q
	r.quotes[quoteID] = rq
	r.items[quoteID] = items
	return nil
}

func (r *fakeRepo) UpdateSchedule(ctx context.Context, quoteID string, date *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq, ok := r.quotes[quoteID]
	if !ok {
		return ErrQuoteNotFound
	}
	rq.Data.ScheduledDate = date
	r.quotes[quoteID] = rq
	return nil
}

func (r *fakeRepo) TransitionStatus(ctx context.Context, quoteID string, next workflow.Status, mode workflow.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq, ok := r.quotes[quoteID]
	if !ok {
		return ErrQuoteNotFound
	}
	rq.Data.Status = string(next)
	r.quotes[quoteID] = rq
	r.transitions = append(r.transitions, transition{id: quoteID, next: next, mode: mode})
	return nil
}

func (r *fakeRepo) quoteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quotes)
}

var errNetwork = errors.New("TypeError: Network request failed")

type failingStore struct{ err error }

func (f failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}

func (f failingStore) Set(ctx context.Context, key, value string) error { return f.err }
