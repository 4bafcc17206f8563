package quote

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix namespaces ids of drafts that only exist on the device.
// Server ids are UUIDs or integers and never start with it.
const LocalIDPrefix = "local-"

// IsLocalID reports whether id belongs to a device-only draft.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalID builds prefix + unix millis + random suffix.
func NewLocalID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return LocalIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// Draft is a quote authored on the device and not yet promoted.
type Draft struct {
	LocalID   string    `json:"local_id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Quote     Data      `json:"quote"`
	Items     []Item    `json:"items"`
	// RemoteID is set when the header already reached the remote store but
	// an edit made during that sync still has to follow it.
	RemoteID string `json:"remote_id,omitempty"`
}

// ListItem projects the draft for display.
func (d Draft) ListItem() ListItem {
	return newListItem(d.LocalID, d.OwnerID, d.Quote, d.CreatedAt, true, len(d.Items))
}

// Detail returns the draft with its projection.
func (d Draft) Detail() Detail {
	items := make([]Item, len(d.Items))
	copy(items, d.Items)
	return Detail{ListItem: d.ListItem(), Quote: d.Quote, Items: items}
}

// Detail is a quote with its lines, for either backing store.
type Detail struct {
	ListItem
	Quote Data   `json:"quote"`
	Items []Item `json:"items"`
}

// Detail returns the remote quote with its projection.
func (r RemoteDetail) Detail() Detail {
	li := r.Remote.ListItem()
	li.ItemCount = len(r.Items)
	return Detail{ListItem: li, Quote: r.Data, Items: r.Items}
}
