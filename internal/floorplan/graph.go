package floorplan

import (
	"math"
)

// Arc is one direction of a hallway in the adjacency structure
type Arc struct {
	To        int
	Weight    float64
	HallwayID int
}

// Graph is a read-only adjacency snapshot; it is safe for concurrent queries.
type Graph struct {
	adjacency map[int][]Arc
}

// BuildGraph derives the undirected weighted graph of the map's current state
func (m *Map) BuildGraph() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return BuildGraph(m.spaces, m.hallways)
}

// BuildGraph adds one vertex per space and two arcs per hallway, weighted by
// the Euclidean distance between the live space coordinates. Hallways whose
// endpoints do not resolve to a space are skipped: routing stays available
// over the well-formed part of a partially inconsistent map.
// Adjacency lists follow hallway order, which keeps Dijkstra deterministic.
func BuildGraph(spaces []Space, hallways []Hallway) *Graph {
	g := &Graph{adjacency: make(map[int][]Arc, len(spaces))}

	byID := make(map[int]Space, len(spaces))
	for _, s := range spaces {
		if _, dup := byID[s.ID]; dup {
			continue
		}
		byID[s.ID] = s
		g.adjacency[s.ID] = nil
	}

	for _, h := range hallways {
		from, ok := byID[h.FromSpaceID]
		if !ok {
			continue
		}
		to, ok := byID[h.ToSpaceID]
		if !ok {
			continue
		}

		weight := math.Hypot(from.X-to.X, from.Y-to.Y)
		g.adjacency[from.ID] = append(g.adjacency[from.ID], Arc{To: to.ID, Weight: weight, HallwayID: h.ID})
		g.adjacency[to.ID] = append(g.adjacency[to.ID], Arc{To: from.ID, Weight: weight, HallwayID: h.ID})
	}

	return g
}

func (g *Graph) HasVertex(id int) bool {
	_, ok := g.adjacency[id]
	return ok
}

func (g *Graph) Neighbors(id int) []Arc {
	return g.adjacency[id]
}

func (g *Graph) VertexCount() int {
	return len(g.adjacency)
}
