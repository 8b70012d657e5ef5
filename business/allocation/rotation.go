package allocation

import "poemEval/domain"

// rotation is one independently shuffled ordering of the full catalog with a
// read cursor. Items leave a rotation only while reserved; they come back at
// the tail on expiry, release or completion, so a rotation plus the active
// reservations drawn from it always covers the catalog exactly once.
type rotation struct {
	items  []domain.Item
	cursor int
}

// scanOrder returns the items in scan order, starting at the cursor and
// wrapping. The returned slice is a snapshot; mutations during the scan do
// not affect it.
func (r *rotation) scanOrder() []domain.Item {
	if len(r.items) == 0 {
		return nil
	}
	c := r.cursor % len(r.items)
	out := make([]domain.Item, 0, len(r.items))
	out = append(out, r.items[c:]...)
	out = append(out, r.items[:c]...)
	return out
}

// indexOf finds the current position of an item by identity, or -1 if the
// item is not present (it may have been selected by a concurrent path).
func (r *rotation) indexOf(it domain.Item) int {
	key := it.Key()
	for i, cand := range r.items {
		if cand.Key() == key {
			return i
		}
	}
	return -1
}

// removeAt deletes the item at position i preserving order.
func (r *rotation) removeAt(i int) domain.Item {
	it := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	if len(r.items) == 0 {
		r.cursor = 0
	} else {
		r.cursor = r.cursor % len(r.items)
	}
	return it
}

// moveToTail removes the item at position i and appends it at the end, so
// other users still get a shot at it later in this rotation.
func (r *rotation) moveToTail(i int) {
	it := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.items = append(r.items, it)
}

// push appends an item at the tail.
func (r *rotation) push(it domain.Item) {
	r.items = append(r.items, it)
}
