package offline

import (
	"context"
	"time"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
)

// Repository is the remote quote store. Headers and items live in separate
// records with no cross-record atomicity.
type Repository interface {
	InsertQuote(ctx context.Context, ownerID string, q quote.Data, createdAt time.Time) (quote.Remote, error)
	InsertItems(ctx context.Context, quoteID string, items []quote.Item) error
	DeleteQuote(ctx context.Context, quoteID string) error
	ListQuotes(ctx context.Context, ownerID string) ([]quote.Remote, error)
	// GetQuote returns ErrQuoteNotFound (wrapped) when the id is unknown.
	GetQuote(ctx context.Context, ownerID, quoteID string) (quote.RemoteDetail, error)
	UpdateQuote(ctx context.Context, quoteID string, q quote.Data, items []quote.Item) error
	UpdateSchedule(ctx context.Context, quoteID string, date *time.Time) error
	TransitionStatus(ctx context.Context, quoteID string, next workflow.Status, mode workflow.Mode) error
}
