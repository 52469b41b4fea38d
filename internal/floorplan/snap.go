package floorplan

import (
	"fmt"
	"math"
)

// FindOrCreateSpaceAt returns the space nearest to (x, y) when it lies within
// threshold, otherwise it creates an Intersection at exactly (x, y).
// A point at exactly threshold distance snaps. The boolean reports whether a
// space was created.
func (m *Map) FindOrCreateSpaceAt(x, y, threshold float64) (Space, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOrCreateSpaceAt(x, y, threshold)
}

func (m *Map) findOrCreateSpaceAt(x, y, threshold float64) (Space, bool) {
	if best, ok := m.nearestSpace(x, y); ok {
		dx := best.X - x
		dy := best.Y - y
		if math.Sqrt(dx*dx+dy*dy) <= threshold {
			return best, false
		}
	}

	name := fmt.Sprintf("Node %d", m.nextSpaceID)
	return m.addSpace(name, SpaceTypeIntersection, x, y), true
}

// nearestSpace scans in insertion order; a later space must be strictly
// closer to replace the current best.
func (m *Map) nearestSpace(x, y float64) (Space, bool) {
	var best Space
	bestDistSq := math.Inf(1)
	found := false

	for _, s := range m.spaces {
		dx := s.X - x
		dy := s.Y - y
		dSq := dx*dx + dy*dy
		if !found || dSq < bestDistSq {
			best = s
			bestDistSq = dSq
			found = true
		}
	}

	return best, found
}
