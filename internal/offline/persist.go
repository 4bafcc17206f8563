package offline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldquote/quotesync/internal/domain/quote"
)

// CreateRemote inserts the header then the items. When the items fail the
// header is deleted again (best effort) and the item error is returned.
func CreateRemote(ctx context.Context, repo Repository, log *zap.Logger, ownerID string, q quote.Data, items []quote.Item, createdAt time.Time) (quote.Remote, error) {
	remote, err := repo.InsertQuote(ctx, ownerID, q, createdAt)
	if err != nil {
		return quote.Remote{}, fmt.Errorf("insert quote: %w", err)
	}
	if len(items) == 0 {
		return remote, nil
	}
	if err := repo.InsertItems(ctx, remote.ID, items); err != nil {
		if derr := repo.DeleteQuote(context.WithoutCancel(ctx), remote.ID); derr != nil {
			log.Warn("compensating delete failed, header may be orphaned",
				zap.String("quote_id", remote.ID), zap.Error(derr))
		}
		return quote.Remote{}, fmt.Errorf("insert quote items: %w", err)
	}
	return remote, nil
}
