package offline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/session"
	"fieldquote/quotesync/internal/domain/workflow"
)

// Options tune the drain.
type Options struct {
	// OldestFirst drains tail to head so the server receives drafts in the
	// order they were authored. The default is queue order, newest first.
	OldestFirst bool
	// SkipFailed keeps draining past a draft rejected by the repository
	// (validation, constraint, auth). The rejected draft stays queued.
	// Connectivity failures always stop the drain.
	SkipFailed bool
}

// FetchResult is a merged quote list plus how it was obtained.
type FetchResult struct {
	Items     []quote.ListItem `json:"quotes"`
	FromCache bool             `json:"from_cache"`
	Promoted  int              `json:"promoted"`
	Pending   int              `json:"pending"`
}

// Reconciler drains the draft queue into the remote repository and serves
// the merged local+remote quote list.
type Reconciler struct {
	queue   *DraftQueue
	cache   *RemoteCache
	repo    Repository
	guard   *SyncGuard
	log     *zap.Logger
	metrics *Metrics
	opts    Options
}

func NewReconciler(queue *DraftQueue, cache *RemoteCache, repo Repository, guard *SyncGuard, log *zap.Logger, metrics *Metrics, opts Options) *Reconciler {
	if guard == nil {
		guard = NewSyncGuard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		queue:   queue,
		cache:   cache,
		repo:    repo,
		guard:   guard,
		log:     log.Named("sync"),
		metrics: metrics,
		opts:    opts,
	}
}

// SyncPendingFor promotes the owner's drafts and returns how many made it.
// Only one drain runs at a time; concurrent callers share its result.
// Repository failures stop (or, with SkipFailed, skip) the drain and are
// logged, never returned; the error is reserved for a missing session or a
// local store failure.
func (r *Reconciler) SyncPendingFor(ctx context.Context, ownerID string) (int, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return 0, err
	}
	return r.guard.Do(ctx, func(ctx context.Context) (int, error) {
		return r.drain(ctx, ownerID)
	})
}

func (r *Reconciler) drain(ctx context.Context, ownerID string) (int, error) {
	drafts, err := r.queue.Pending(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if len(drafts) == 0 {
		return 0, nil
	}
	if r.opts.OldestFirst {
		slices.Reverse(drafts)
	}

	promoted := 0
	defer func() { r.metrics.drain(promoted) }()

	for _, d := range drafts {
		quoteID, err := r.promote(ctx, d)
		if err != nil {
			var se *storeError
			if errors.As(err, &se) {
				r.log.Error("promoted draft could not be dequeued",
					zap.String("local_id", d.LocalID), zap.String("quote_id", quoteID), zap.Error(se.err))
				return promoted, se.err
			}
			offline := IsLikelyOffline(err)
			r.metrics.draftFailed(offline)
			fields := []zap.Field{
				zap.String("owner_id", ownerID),
				zap.String("local_id", d.LocalID),
				zap.Bool("offline", offline),
				zap.Error(err),
			}
			if offline || !r.opts.SkipFailed {
				r.log.Warn("drain stopped, remaining drafts kept", fields...)
				break
			}
			r.log.Error("draft rejected by remote store, skipping", fields...)
			continue
		}
		promoted++
		r.log.Info("draft promoted",
			zap.String("owner_id", ownerID), zap.String("local_id", d.LocalID), zap.String("quote_id", quoteID))
	}
	return promoted, nil
}

type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// promote moves one draft to the remote store and dequeues it. Edits made
// to the draft while it was in flight are pushed to the created quote before
// the draft leaves the queue; if that push fails the draft stays queued,
// tagged with the quote id, and the next drain updates instead of creating.
func (r *Reconciler) promote(ctx context.Context, d quote.Draft) (string, error) {
	quoteID := d.RemoteID
	if quoteID != "" {
		err := r.push(ctx, d, quoteID, "")
		switch {
		case errors.Is(err, ErrQuoteNotFound):
			// the promoted quote is gone on the server, create it again
			quoteID = ""
		case err != nil:
			return quoteID, err
		}
	}
	if quoteID == "" {
		remote, err := CreateRemote(ctx, r.repo, r.log, d.OwnerID, d.Quote, d.Items, d.CreatedAt)
		if err != nil {
			return "", err
		}
		quoteID = remote.ID
	}
	pushed := workflow.Normalize(d.Quote.Status)

	for snap := d; ; {
		next, found, err := r.queue.settle(ctx, snap, quoteID)
		if err != nil {
			return quoteID, &storeError{err}
		}
		if !found {
			// deleted on the device while in flight
			if err := r.repo.DeleteQuote(ctx, quoteID); err != nil {
				r.log.Warn("draft removed during sync, promoted quote kept",
					zap.String("local_id", d.LocalID), zap.String("quote_id", quoteID), zap.Error(err))
			}
			return quoteID, nil
		}
		if next == nil {
			return quoteID, nil
		}
		if err := r.push(ctx, *next, quoteID, pushed); err != nil {
			return quoteID, err
		}
		pushed = workflow.Normalize(next.Quote.Status)
		snap = *next
	}
}

// push overwrites the promoted quote with the draft's payload. known is the
// status the remote quote is known to have, empty when unknown.
func (r *Reconciler) push(ctx context.Context, d quote.Draft, quoteID string, known workflow.Status) error {
	if err := r.repo.UpdateQuote(ctx, quoteID, d.Quote, d.Items); err != nil {
		return fmt.Errorf("update promoted quote: %w", err)
	}
	if known == "" {
		cur, err := r.repo.GetQuote(ctx, d.OwnerID, quoteID)
		if err != nil {
			return fmt.Errorf("read promoted quote: %w", err)
		}
		known = workflow.Normalize(cur.Data.Status)
	}
	if want := workflow.Normalize(d.Quote.Status); want != known {
		if err := r.repo.TransitionStatus(ctx, quoteID, want, workflow.ModeManual); err != nil {
			return fmt.Errorf("transition promoted quote: %w", err)
		}
	}
	return nil
}

// Fetch syncs, then returns remote quotes merged with the drafts still
// queued. When the remote list cannot be fetched for connectivity reasons
// the cached snapshot stands in for it.
func (r *Reconciler) Fetch(ctx context.Context, ownerID string) (FetchResult, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return FetchResult{}, err
	}
	promoted, err := r.SyncPendingFor(ctx, ownerID)
	if err != nil {
		return FetchResult{}, err
	}
	pending, err := r.queue.ListFor(ctx, ownerID)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Promoted: promoted, Pending: len(pending)}

	remote, err := r.repo.ListQuotes(ctx, ownerID)
	if err != nil {
		if !IsLikelyOffline(err) {
			return FetchResult{}, err
		}
		r.metrics.cacheFallback()
		r.log.Warn("remote list unavailable, serving cache", zap.String("owner_id", ownerID), zap.Error(err))
		cached, cerr := r.cache.Load(ctx, ownerID)
		if cerr != nil {
			return FetchResult{}, cerr
		}
		res.Items = quote.Merge(cached, pending)
		res.FromCache = true
		return res, nil
	}

	items := make([]quote.ListItem, 0, len(remote))
	for _, q := range remote {
		items = append(items, q.ListItem())
	}
	if err := r.cache.Save(ctx, ownerID, items); err != nil {
		r.log.Warn("quote cache not updated", zap.String("owner_id", ownerID), zap.Error(err))
	}
	res.Items = quote.Merge(items, pending)
	return res, nil
}

// FetchWithOffline is Fetch returning only the merged list.
func (r *Reconciler) FetchWithOffline(ctx context.Context, ownerID string) ([]quote.ListItem, error) {
	res, err := r.Fetch(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
