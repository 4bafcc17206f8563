package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/infra/kv"
)

const cacheKeyPrefix = "quote_cache:"

// RemoteCache keeps the last successfully fetched remote list per owner so
// reads keep working without connectivity.
type RemoteCache struct {
	store kv.Store
}

func NewRemoteCache(store kv.Store) *RemoteCache {
	return &RemoteCache{store: store}
}

// Load returns the owner's snapshot; a missing or undecodable snapshot is
// empty.
func (c *RemoteCache) Load(ctx context.Context, ownerID string) ([]quote.ListItem, error) {
	raw, ok, err := c.store.Get(ctx, cacheKeyPrefix+ownerID)
	if err != nil {
		return nil, fmt.Errorf("read quote cache: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []quote.ListItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, nil
	}
	return items, nil
}

// Save overwrites the owner's snapshot.
func (c *RemoteCache) Save(ctx context.Context, ownerID string, items []quote.ListItem) error {
	if items == nil {
		items = []quote.ListItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode quote cache: %w", err)
	}
	if err := c.store.Set(ctx, cacheKeyPrefix+ownerID, string(raw)); err != nil {
		return fmt.Errorf("write quote cache: %w", err)
	}
	return nil
}
