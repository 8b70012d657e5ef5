package allocation

// Timeout reclamation. An evaluator who opens an item and never responds
// holds its reservation until expiry; the sweep dissolves the hold and the
// item rejoins the tail of the rotation it was drawn from. Nothing is added
// to the user's seen sets, so the item stays eligible for everyone,
// including the same user later.

// Sweep reclaims all expired reservations. Safe to call concurrently with
// Acquire/Complete: a submission that still holds its reservation wins the
// race, and reclaiming an already-reclaimed reservation is a no-op.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reclaimExpiredLocked()
}

func (e *Engine) reclaimExpiredLocked() int {
	now := e.now()
	reclaimed := 0
	for _, res := range e.reservations {
		if !now.After(res.ExpiresAt) {
			continue
		}
		e.requeueLocked(res)
		reclaimed++
	}
	if reclaimed > 0 {
		reclaimedTotal.Add(float64(reclaimed))
	}
	return reclaimed
}
