package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mvicentini/dispensa/internal/normalize"
)

// ListsStore owns list-and-item mutation semantics over the shared_lists
// collection. Every item/chat mutation reads the full document, computes the
// new derived state and writes the whole items/chat_messages array back with
// $set: last writer wins, no version check. The store relies on MongoDB's
// single-document write atomicity but not on anything across the
// read-then-write gap.
type ListsStore struct {
	coll *mongo.Collection
}

// NewListsStore returns a ListsStore using the given collection.
func NewListsStore(coll *mongo.Collection) *ListsStore {
	return &ListsStore{coll: coll}
}

// Create persists a new list owned by actor. Membership is seeded with
// exactly the creator regardless of who was invited; invited emails go
// through the invitation manager, never directly into members.
func (s *ListsStore) Create(ctx context.Context, actor, name, kind string) (*SharedList, error) {
	actor = normalize.Email(actor)
	if actor == "" {
		return nil, ErrNotAuthenticated
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	if !ValidKind(kind) {
		return nil, ErrInvalidKind
	}

	now := time.Now()
	list := &SharedList{
		OwnerID:        actor,
		Name:           name,
		Kind:           kind,
		Members:        []string{actor},
		Items:          []SharedListItem{},
		TotalCost:      0,
		CreatedAt:      now,
		LastModifiedBy: actor,
		LastModifiedAt: now,
		ChatMessages:   []ChatMessage{},
	}

	result, err := s.coll.InsertOne(ctx, list)
	if err != nil {
		return nil, err
	}
	list.ID = result.InsertedID.(bson.ObjectID)
	return list, nil
}

// CreateFromSnapshot materializes a brand-new list for owner from a share
// snapshot. Membership is exactly {owner}; the inviter is recorded only via
// shared_from. The chat transcript starts empty and total_cost is recomputed
// from the snapshot items rather than trusted from the sender.
func (s *ListsStore) CreateFromSnapshot(ctx context.Context, owner string, snap ListSnapshot, sharedFrom string) (*SharedList, error) {
	owner = normalize.Email(owner)
	if owner == "" {
		return nil, ErrNotAuthenticated
	}

	items := make([]SharedListItem, len(snap.Items))
	copy(items, snap.Items)

	now := time.Now()
	list := &SharedList{
		OwnerID:        owner,
		Name:           snap.Name,
		Kind:           snap.Kind,
		Members:        []string{owner},
		Items:          items,
		TotalCost:      totalCost(items),
		SharedFrom:     normalize.Email(sharedFrom),
		CreatedAt:      now,
		LastModifiedBy: owner,
		LastModifiedAt: now,
		ChatMessages:   []ChatMessage{},
	}

	result, err := s.coll.InsertOne(ctx, list)
	if err != nil {
		return nil, err
	}
	list.ID = result.InsertedID.(bson.ObjectID)
	return list, nil
}

// GetByID returns the list with the given hex id, or ErrNotFound.
func (s *ListsStore) GetByID(ctx context.Context, listID string) (*SharedList, error) {
	oid, err := bson.ObjectIDFromHex(listID)
	if err != nil {
		// A malformed id can never resolve to a document.
		return nil, ErrNotFound
	}

	var list SharedList
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&list); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// ListByMember returns every list whose members array contains the given
// identity. Order is store-native.
func (s *ListsStore) ListByMember(ctx context.Context, member string) ([]*SharedList, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"members": normalize.Email(member)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lists := []*SharedList{}
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// AddItem appends a new item to the list, recomputes total_cost and stamps
// the list's modification metadata. Returns the updated list.
func (s *ListsStore) AddItem(ctx context.Context, listID, actor string, draft ItemDraft) (*SharedList, error) {
	actor = normalize.Email(actor)
	if actor == "" {
		return nil, ErrNotAuthenticated
	}

	list, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item, err := newItem(draft, actor, now)
	if err != nil {
		return nil, err
	}

	list.Items = append(list.Items, item)
	return s.writeItems(ctx, list, actor, now)
}

// UpdateItem applies a partial patch to the matching item. Fields not in the
// patch keep whatever the read returned, so a concurrent writer's fields may
// be silently overwritten; that trade-off is deliberate.
func (s *ListsStore) UpdateItem(ctx context.Context, listID, itemID, actor string, patch ItemPatch) (*SharedList, error) {
	actor = normalize.Email(actor)
	if actor == "" {
		return nil, ErrNotAuthenticated
	}

	list, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	found := false
	for i, it := range list.Items {
		if it.ID != itemID {
			continue
		}
		patched, err := applyItemPatch(it, patch, actor, now)
		if err != nil {
			return nil, err
		}
		list.Items[i] = patched
		found = true
		break
	}
	if !found {
		return nil, ErrNotFound
	}

	return s.writeItems(ctx, list, actor, now)
}

// DeleteItem removes the item by filter and recomputes total_cost. Deleting a
// missing item id is a no-op: nothing is written, items and total_cost stay
// unchanged.
func (s *ListsStore) DeleteItem(ctx context.Context, listID, itemID, actor string) (*SharedList, error) {
	actor = normalize.Email(actor)
	if actor == "" {
		return nil, ErrNotAuthenticated
	}

	list, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	items, removed := removeItem(list.Items, itemID)
	if !removed {
		return list, nil
	}

	list.Items = items
	return s.writeItems(ctx, list, actor, time.Now())
}

// Delete removes the list document outright. This is a per-holder deletion:
// acceptance created an independent copy per member, so other members' copies
// are unaffected.
func (s *ListsStore) Delete(ctx context.Context, listID string) error {
	oid, err := bson.ObjectIDFromHex(listID)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddChatMessage appends a message to the transcript. A chat message counts
// as a list modification for recent-activity purposes, so the list metadata
// is stamped too.
func (s *ListsStore) AddChatMessage(ctx context.Context, listID, actorEmail, actorName, text string) (*SharedList, error) {
	actorEmail = normalize.Email(actorEmail)
	if actorEmail == "" {
		return nil, ErrNotAuthenticated
	}

	list, err := s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := ChatMessage{
		ID:        uuid.NewString(),
		ListID:    list.ID.Hex(),
		UserEmail: actorEmail,
		UserName:  actorName,
		Text:      text,
		CreatedAt: now,
	}
	list.ChatMessages = append(list.ChatMessages, msg)
	list.LastModifiedBy = actorEmail
	list.LastModifiedAt = now

	update := bson.M{"$set": bson.M{
		"chat_messages":    list.ChatMessages,
		"last_modified_by": list.LastModifiedBy,
		"last_modified_at": list.LastModifiedAt,
	}}
	if err := s.updateOne(ctx, list.ID, update); err != nil {
		return nil, err
	}
	return list, nil
}

// writeItems writes the whole items array plus derived and attribution
// fields back, then returns the in-memory list updated the same way.
func (s *ListsStore) writeItems(ctx context.Context, list *SharedList, actor string, now time.Time) (*SharedList, error) {
	list.TotalCost = totalCost(list.Items)
	list.LastModifiedBy = actor
	list.LastModifiedAt = now

	update := bson.M{"$set": bson.M{
		"items":            list.Items,
		"total_cost":       list.TotalCost,
		"last_modified_by": list.LastModifiedBy,
		"last_modified_at": list.LastModifiedAt,
	}}
	if err := s.updateOne(ctx, list.ID, update); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ListsStore) updateOne(ctx context.Context, id bson.ObjectID, update bson.M) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// The list vanished between read and write.
		return ErrNotFound
	}
	return nil
}
