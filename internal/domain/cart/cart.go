// Package cart holds the shopping cart domain model: the line items a shopper
// has selected, the rules for changing their quantities, and the storage port
// the cart is persisted through.
package cart

import "math"

// DefaultStorageKey is the key the cart contents are persisted under.
const DefaultStorageKey = "shopping-cart"

// CartItem is a product reference with a positive quantity.
type CartItem struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// Items is the ordered sequence of cart items. Order is insertion order and
// carries no meaning beyond display.
//
// Every method treats the receiver as immutable: mutations return a freshly
// allocated sequence so a reader holding the old one never observes a partial
// update.
type Items []CartItem

// Quantity returns the quantity of item id, or 0 if it is not in the cart.
func (items Items) Quantity(id int) int {
	if i := items.indexOf(id); i >= 0 {
		return items[i].Quantity
	}
	return 0
}

// Contains reports whether item id is in the cart.
func (items Items) Contains(id int) bool {
	return items.indexOf(id) >= 0
}

// Increase adds one unit of item id, appending it when absent. A quantity
// already at math.MaxInt stays there.
func (items Items) Increase(id int) Items {
	i := items.indexOf(id)
	if i < 0 {
		next := make(Items, len(items), len(items)+1)
		copy(next, items)
		return append(next, CartItem{ID: id, Quantity: 1})
	}

	next := items.Clone()
	next[i].Quantity = addQuantity(next[i].Quantity, 1)
	return next
}

// Decrease removes one unit of item id. An item at quantity 1 is removed
// entirely; an absent item leaves the cart unchanged.
func (items Items) Decrease(id int) Items {
	i := items.indexOf(id)
	if i < 0 {
		return items.Clone()
	}
	if items[i].Quantity <= 1 {
		return items.Remove(id)
	}

	next := items.Clone()
	next[i].Quantity--
	return next
}

// Remove drops item id regardless of its quantity.
func (items Items) Remove(id int) Items {
	next := make(Items, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	return next
}

// TotalQuantity is the number of units across all items, capped at
// math.MaxInt.
func (items Items) TotalQuantity() int {
	total := 0
	for _, item := range items {
		total = addQuantity(total, item.Quantity)
	}
	return total
}

// Clone returns a copy that shares no backing array with items.
// A nil or empty receiver yields an empty, non-nil sequence.
func (items Items) Clone() Items {
	next := make(Items, len(items))
	copy(next, items)
	return next
}

// Normalize repairs a sequence read from storage so that it satisfies the
// cart invariants: entries with a non-positive quantity are dropped and
// duplicate ids are merged into the first occurrence, saturating at
// math.MaxInt.
func (items Items) Normalize() Items {
	next := make(Items, 0, len(items))
	seen := make(map[int]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := seen[item.ID]; ok {
			next[i].Quantity = addQuantity(next[i].Quantity, item.Quantity)
			continue
		}
		seen[item.ID] = len(next)
		next = append(next, item)
	}
	return next
}

func (items Items) indexOf(id int) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// addQuantity adds two non-negative quantities without wrapping.
func addQuantity(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
