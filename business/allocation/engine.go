package allocation

import (
	"math/rand"
	"sync"
	"time"

	"poemEval/domain"
	"poemEval/pkg/logger"
)

// NumRotations is fixed: six independent full-catalog shuffles are the
// fairness mechanism, tried in strict rank order 1..6.
const NumRotations = 6

// DefaultReservationTTL is how long an assigned item stays held before an
// unresponsive evaluator forfeits it.
const DefaultReservationTTL = 10 * time.Minute

// Engine owns all rotation state and the outstanding reservations. Every
// mutation happens under one mutex, so two concurrent Acquire calls can
// never select the same item.
type Engine struct {
	mu           sync.Mutex
	rotations    [NumRotations]*rotation
	reservations map[string]*domain.Reservation // by user id
	reservedKeys map[string]string              // item key -> holding user id
	catalogSize  int
	ttl          time.Duration
	now          func() time.Time
}

// NewEngine builds six independently shuffled rotations over the given
// catalog. The catalog is the fixed universe: items never enter or leave
// after construction, they only move between rotations and reservations.
func NewEngine(items []domain.Item, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}

	e := &Engine{
		reservations: make(map[string]*domain.Reservation),
		reservedKeys: make(map[string]string),
		catalogSize:  len(items),
		ttl:          ttl,
		now:          time.Now,
	}

	for rank := 0; rank < NumRotations; rank++ {
		shuffled := make([]domain.Item, len(items))
		copy(shuffled, items)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		e.rotations[rank] = &rotation{items: shuffled}
	}

	logger.Info("allocation engine initialized",
		"catalog_size", len(items),
		"rotations", NumRotations,
		"reservation_ttl", ttl.String(),
	)

	return e
}

// Acquire picks the next item for a user given their permanent seen sets.
// Rotations are tried in rank order; within a rotation the scan starts at
// the cursor and wraps once. Conflict rules, in order:
//
//   - title unseen: select immediately (scenario A)
//   - title seen but path unseen: move the item to the rotation tail and
//     keep scanning; this rotation has passed on the item (scenario B)
//   - title and path both seen: skip without moving (scenario C)
//
// Only when an entire rotation has been scanned without an admissible item
// does the engine advance to the next rank. Returns false when every
// rotation is exhausted for this user.
func (e *Engine) Acquire(userID string, seenTitles, seenPaths map[string]struct{}) (domain.Reservation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reclaimExpiredLocked()

	// A re-entering user forfeits any outstanding hold before a new pick;
	// the abandoned item stays eligible for everyone, unseen.
	if prev, ok := e.reservations[userID]; ok {
		e.requeueLocked(prev)
	}

	now := e.now()
	for rank := 0; rank < NumRotations; rank++ {
		rot := e.rotations[rank]

		for _, it := range rot.scanOrder() {
			if _, held := e.reservedKeys[it.Key()]; held {
				// Reserved by another user; invisible until returned.
				continue
			}

			if _, titleSeen := seenTitles[it.PoemTitle]; !titleSeen {
				// Scenario A.
				idx := rot.indexOf(it)
				if idx < 0 {
					continue
				}
				rot.removeAt(idx)
				if len(rot.items) > 0 {
					rot.cursor = idx % len(rot.items)
				}

				res := &domain.Reservation{
					Item:         it,
					RotationRank: rank + 1,
					UserID:       userID,
					AssignedAt:   now,
					ExpiresAt:    now.Add(e.ttl),
				}
				e.reservations[userID] = res
				e.reservedKeys[it.Key()] = userID

				acquireTotal.WithLabelValues(outcomeAssigned).Inc()
				return *res, true
			}

			if _, pathSeen := seenPaths[it.ImagePath]; !pathSeen {
				// Scenario B: recycle to the tail, keep scanning.
				if idx := rot.indexOf(it); idx >= 0 {
					rot.moveToTail(idx)
				}
				continue
			}

			// Scenario C: skip in place.
		}
	}

	acquireTotal.WithLabelValues(outcomeExhausted).Inc()
	return domain.Reservation{}, false
}

// ReservationFor returns the user's active reservation, if any.
func (e *Engine) ReservationFor(userID string) (domain.Reservation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := e.reservations[userID]
	if !ok {
		return domain.Reservation{}, false
	}
	return *res, true
}

// Complete finalizes the user's reservation after a successful submission.
// The item rejoins the tail of its rotation so other evaluators can still
// draw it; the submitting user is blocked from it by their seen facts. A
// submission that raced an expiry sweep and lost reports false.
func (e *Engine) Complete(userID string) (domain.Reservation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := e.reservations[userID]
	if !ok {
		return domain.Reservation{}, false
	}
	e.requeueLocked(res)
	return *res, true
}

// Release returns a reserved item to its rotation tail without recording
// anything. Used when a downstream storage write fails after a pick, so an
// item is never stranded outside all rotations.
func (e *Engine) Release(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := e.reservations[userID]
	if !ok {
		return false
	}
	e.requeueLocked(res)
	return true
}

// requeueLocked dissolves a reservation and returns its item to the tail of
// the rotation it was drawn from.
func (e *Engine) requeueLocked(res *domain.Reservation) {
	e.rotations[res.RotationRank-1].push(res.Item)
	delete(e.reservations, res.UserID)
	delete(e.reservedKeys, res.Item.Key())
}
