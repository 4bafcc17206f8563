package offline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/session"
	"fieldquote/quotesync/internal/domain/workflow"
)

// Service is the quote API used by presentation code. Ids are dispatched to
// the draft queue when they carry the local prefix and to the remote
// repository otherwise.
type Service struct {
	queue   *DraftQueue
	repo    Repository
	recon   *Reconciler
	clock   Clock
	log     *zap.Logger
	metrics *Metrics
}

func NewService(queue *DraftQueue, repo Repository, recon *Reconciler, clock Clock, log *zap.Logger, metrics *Metrics) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{queue: queue, repo: repo, recon: recon, clock: clock, log: log.Named("quotes"), metrics: metrics}
}

// List returns the merged quote list, see Reconciler.Fetch.
func (s *Service) List(ctx context.Context, ownerID string) (FetchResult, error) {
	return s.recon.Fetch(ctx, ownerID)
}

// Sync drains the owner's drafts.
func (s *Service) Sync(ctx context.Context, ownerID string) (int, error) {
	return s.recon.SyncPendingFor(ctx, ownerID)
}

// Create persists a new quote remotely, or queues it as a draft when the
// remote store is unreachable.
func (s *Service) Create(ctx context.Context, ownerID string, data quote.Data, items []quote.Item) (quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.ListItem{}, err
	}
	if err := quote.Validate(data, items); err != nil {
		return quote.ListItem{}, err
	}
	data.Status = string(workflow.Normalize(data.Status))
	data = quote.FillTotal(data, items)

	remote, err := CreateRemote(ctx, s.repo, s.log, ownerID, data, items, s.clock.Now())
	if err == nil {
		s.metrics.created("remote")
		li := remote.ListItem()
		li.ItemCount = len(items)
		return li, nil
	}
	if !IsLikelyOffline(err) {
		return quote.ListItem{}, err
	}

	li, qerr := s.queue.Enqueue(ctx, ownerID, data, items)
	if qerr != nil {
		return quote.ListItem{}, qerr
	}
	s.metrics.created("queue")
	s.log.Info("remote store unreachable, quote queued",
		zap.String("owner_id", ownerID), zap.String("local_id", li.ID), zap.Error(err))
	return li, nil
}

// Detail returns a quote with its items from whichever store holds it.
func (s *Service) Detail(ctx context.Context, ownerID, id string) (quote.Detail, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.Detail{}, err
	}
	if quote.IsLocalID(id) {
		det, err := s.queue.Detail(ctx, id, ownerID)
		if err != nil {
			return quote.Detail{}, err
		}
		if det == nil {
			return quote.Detail{}, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
		}
		return *det, nil
	}
	rd, err := s.repo.GetQuote(ctx, ownerID, id)
	if err != nil {
		return quote.Detail{}, err
	}
	return rd.Detail(), nil
}

// Edit replaces the payload and items of a quote.
func (s *Service) Edit(ctx context.Context, ownerID, id string, data quote.Data, items []quote.Item) (quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.ListItem{}, err
	}
	if quote.IsLocalID(id) {
		return found(s.queue.Update(ctx, ownerID, id, data, items))(id)
	}
	if err := quote.Validate(data, items); err != nil {
		return quote.ListItem{}, err
	}
	cur, err := s.repo.GetQuote(ctx, ownerID, id)
	if err != nil {
		return quote.ListItem{}, err
	}
	// status changes go through ChangeStatus
	data.Status = string(workflow.Normalize(cur.Data.Status))
	data = quote.FillTotal(data, items)
	if err := s.repo.UpdateQuote(ctx, id, data, items); err != nil {
		return quote.ListItem{}, err
	}
	cur.Data = data
	cur.Items = items
	return cur.Detail().ListItem, nil
}

// Reschedule sets or clears the scheduled date.
func (s *Service) Reschedule(ctx context.Context, ownerID, id string, date *time.Time) (quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.ListItem{}, err
	}
	if quote.IsLocalID(id) {
		return found(s.queue.UpdateSchedule(ctx, ownerID, id, date))(id)
	}
	cur, err := s.repo.GetQuote(ctx, ownerID, id)
	if err != nil {
		return quote.ListItem{}, err
	}
	if err := s.repo.UpdateSchedule(ctx, id, date); err != nil {
		return quote.ListItem{}, err
	}
	cur.Data.ScheduledDate = date
	return cur.Detail().ListItem, nil
}

// ChangeStatus moves a quote to target. In process mode target must be one
// of the guided actions of the current status; in manual mode any other
// canonical status is allowed.
func (s *Service) ChangeStatus(ctx context.Context, ownerID, id, target string, mode workflow.Mode) (quote.ListItem, error) {
	if err := session.RequireOwner(ownerID); err != nil {
		return quote.ListItem{}, err
	}
	if !mode.Valid() {
		return quote.ListItem{}, fmt.Errorf("%w: unknown mode %q", workflow.ErrIllegalTransition, mode)
	}
	next, ok := workflow.Lookup(target)
	if !ok {
		return quote.ListItem{}, fmt.Errorf("%w: unknown status %q", workflow.ErrIllegalTransition, target)
	}

	det, err := s.Detail(ctx, ownerID, id)
	if err != nil {
		return quote.ListItem{}, err
	}
	if err := workflow.CheckTransition(det.Quote.Status, next, mode); err != nil {
		return quote.ListItem{}, err
	}

	if quote.IsLocalID(id) {
		return found(s.queue.UpdateStatus(ctx, ownerID, id, next))(id)
	}
	if err := s.repo.TransitionStatus(ctx, id, next, mode); err != nil {
		return quote.ListItem{}, err
	}
	s.log.Info("status changed",
		zap.String("quote_id", id), zap.String("from", string(det.Status)), zap.String("to", string(next)), zap.String("mode", string(mode)))
	li := det.ListItem
	li.Status = next
	return li, nil
}

// Advance applies the primary action of the quote's current status.
func (s *Service) Advance(ctx context.Context, ownerID, id string) (quote.ListItem, error) {
	det, err := s.Detail(ctx, ownerID, id)
	if err != nil {
		return quote.ListItem{}, err
	}
	act := workflow.PrimaryAction(det.Quote.Status)
	if act == nil {
		return quote.ListItem{}, fmt.Errorf("%w: %s has no next step", workflow.ErrIllegalTransition, det.Status)
	}
	return s.ChangeStatus(ctx, ownerID, id, string(act.Next), workflow.ModeProcess)
}

// Delete removes a quote from whichever store holds it.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := session.RequireOwner(ownerID); err != nil {
		return err
	}
	if quote.IsLocalID(id) {
		return s.queue.Remove(ctx, id, ownerID)
	}
	if _, err := s.repo.GetQuote(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteQuote(ctx, id)
}

func found(li *quote.ListItem, err error) func(string) (quote.ListItem, error) {
	return func(id string) (quote.ListItem, error) {
		if err != nil {
			return quote.ListItem{}, err
		}
		if li == nil {
			return quote.ListItem{}, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
		}
		return *li, nil
	}
}
