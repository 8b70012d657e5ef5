package allocation

// Stats is a point-in-time snapshot of engine occupancy. At every snapshot
// each rotation plus the reservations drawn from it covers the catalog
// exactly once; no item is ever lost or duplicated.
type Stats struct {
	CatalogSize        int   `json:"catalog_size"`
	RotationSizes      []int `json:"rotation_sizes"`
	ActiveReservations int   `json:"active_reservations"`
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	sizes := make([]int, NumRotations)
	for i, rot := range e.rotations {
		sizes[i] = len(rot.items)
	}

	return Stats{
		CatalogSize:        e.catalogSize,
		RotationSizes:      sizes,
		ActiveReservations: len(e.reservations),
	}
}
