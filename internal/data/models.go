// Package data provides the document models and stores for shared lists and
// their share requests.
package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// List kinds.
const (
	KindShopping = "shopping"
	KindPantry   = "pantry"
)

// Item priorities.
const (
	PriorityAlta  = "alta"
	PriorityMedia = "media"
	PriorityBassa = "bassa"
)

// Share request statuses. A request moves from pending to exactly one of the
// terminal statuses and is immutable afterwards.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// SharedList maps to the shared_lists collection. Items and the chat
// transcript are embedded; total_cost is derived from items and rewritten on
// every mutation.
type SharedList struct {
	ID             bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	OwnerID        string           `bson:"owner_id" json:"owner_id"`
	Name           string           `bson:"name" json:"name"`
	Kind           string           `bson:"kind" json:"kind"`
	Members        []string         `bson:"members" json:"members"`
	Items          []SharedListItem `bson:"items" json:"items"`
	TotalCost      float64          `bson:"total_cost" json:"total_cost"`
	SharedFrom     string           `bson:"shared_from,omitempty" json:"shared_from,omitempty"`
	CreatedAt      time.Time        `bson:"created_at" json:"created_at"`
	LastModifiedBy string           `bson:"last_modified_by" json:"last_modified_by"`
	LastModifiedAt time.Time        `bson:"last_modified_at" json:"last_modified_at"`
	ChatMessages   []ChatMessage    `bson:"chat_messages" json:"chat_messages"`
}

// SharedListItem is embedded in SharedList.Items. created_by/created_at are
// set once; last_modified_by/at change on every field edit, completed toggles
// included.
type SharedListItem struct {
	ID             string    `bson:"id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Quantity       string    `bson:"quantity" json:"quantity"`
	Category       string    `bson:"category" json:"category"`
	Priority       string    `bson:"priority" json:"priority"`
	Cost           float64   `bson:"cost" json:"cost"`
	Completed      bool      `bson:"completed" json:"completed"`
	CreatedBy      string    `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	LastModifiedBy string    `bson:"last_modified_by" json:"last_modified_by"`
	LastModifiedAt time.Time `bson:"last_modified_at" json:"last_modified_at"`
}

// ChatMessage is embedded in SharedList.ChatMessages, append-only. ListID is
// informational only, never used for ownership.
type ChatMessage struct {
	ID        string    `bson:"id" json:"id"`
	ListID    string    `bson:"list_id" json:"list_id"`
	UserEmail string    `bson:"user_email" json:"user_email"`
	UserName  string    `bson:"user_name" json:"user_name"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ListSnapshot is the immutable copy of list content captured at invite time.
// Acceptance seeds the responder's independent list from it, so staleness
// between invite and accept is possible and accepted.
type ListSnapshot struct {
	Name  string           `bson:"name" json:"name"`
	Kind  string           `bson:"kind" json:"kind"`
	Items []SharedListItem `bson:"items" json:"items"`
}

// ListShareRequest maps to the list_requests collection.
type ListShareRequest struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ListID      string        `bson:"list_id" json:"list_id"`
	ListName    string        `bson:"list_name" json:"list_name"`
	ListType    string        `bson:"list_type" json:"list_type"`
	Sender      string        `bson:"sender" json:"sender"`
	Receiver    string        `bson:"receiver" json:"receiver"`
	Status      string        `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time    `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	Snapshot    ListSnapshot  `bson:"snapshot" json:"snapshot"`
}

// ItemDraft is the input for adding an item.
type ItemDraft struct {
	Name     string
	Quantity string
	Category string
	Priority string
	Cost     float64
}

// ItemPatch is a partial update; nil fields are left untouched. Fields that
// are set always take this writer's value (last writer wins, no version
// check).
type ItemPatch struct {
	Name      *string
	Quantity  *string
	Category  *string
	Priority  *string
	Cost      *float64
	Completed *bool
}

// ValidKind reports whether k is a known list kind.
func ValidKind(k string) bool {
	return k == KindShopping || k == KindPantry
}

// ValidPriority reports whether p is a known item priority.
func ValidPriority(p string) bool {
	return p == PriorityAlta || p == PriorityMedia || p == PriorityBassa
}

// SnapshotOf captures the shareable content of a list.
func SnapshotOf(l *SharedList) ListSnapshot {
	items := make([]SharedListItem, len(l.Items))
	copy(items, l.Items)
	return ListSnapshot{Name: l.Name, Kind: l.Kind, Items: items}
}
