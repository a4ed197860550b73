package data

import (
	"time"

	"github.com/google/uuid"
)

// totalCost recomputes the derived list total from its items. It must be
// rewritten together with items on every mutation so that
// total_cost == sum(items[].cost) holds in the stored document.
func totalCost(items []SharedListItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Cost
	}
	return sum
}

// newItem builds an embedded item from a draft. Priority defaults to media
// when the draft omits it. The id is generated here because embedded
// documents get no store-assigned id.
func newItem(draft ItemDraft, actor string, now time.Time) (SharedListItem, error) {
	if draft.Cost < 0 {
		return SharedListItem{}, ErrNegativeCost
	}
	priority := draft.Priority
	if priority == "" {
		priority = PriorityMedia
	}
	if !ValidPriority(priority) {
		return SharedListItem{}, ErrInvalidPriority
	}
	return SharedListItem{
		ID:             uuid.NewString(),
		Name:           draft.Name,
		Quantity:       draft.Quantity,
		Category:       draft.Category,
		Priority:       priority,
		Cost:           draft.Cost,
		CreatedBy:      actor,
		CreatedAt:      now,
		LastModifiedBy: actor,
		LastModifiedAt: now,
	}, nil
}

// applyItemPatch applies the set fields of patch to item and stamps the
// item's modification metadata. Unset fields keep whatever value the stored
// document had, so concurrent writers to disjoint field sets both survive.
func applyItemPatch(item SharedListItem, patch ItemPatch, actor string, now time.Time) (SharedListItem, error) {
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Priority != nil {
		if !ValidPriority(*patch.Priority) {
			return item, ErrInvalidPriority
		}
		item.Priority = *patch.Priority
	}
	if patch.Cost != nil {
		if *patch.Cost < 0 {
			return item, ErrNegativeCost
		}
		item.Cost = *patch.Cost
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	item.LastModifiedBy = actor
	item.LastModifiedAt = now
	return item, nil
}

// removeItem filters out every item with the given id. Removal is by filter,
// so a missing id is indistinguishable from removing the last instance.
func removeItem(items []SharedListItem, itemID string) ([]SharedListItem, bool) {
	out := items[:0:0]
	removed := false
	for _, it := range items {
		if it.ID == itemID {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}
