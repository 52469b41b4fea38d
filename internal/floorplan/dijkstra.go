package floorplan

import (
	"container/heap"
	"math"
)

// Path is a route through the graph. HallwayIDs[i] connects SpaceIDs[i] and SpaceIDs[i+1].
type Path struct {
	SpaceIDs   []int
	HallwayIDs []int
	Distance   float64
}

type queueItem struct {
	node int
	dist float64
}

// priorityQueue orders by distance, then by space id, so equal-distance
// entries pop lowest id first.
type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) { *pq = append(*pq, x.(queueItem)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra from start and stops as soon as end is settled.
// It reports false when either id is not a vertex or end cannot be reached.
// For start == end the path is the single space with no hallways.
func (g *Graph) ShortestPath(start, end int) (Path, bool) {
	if !g.HasVertex(start) || !g.HasVertex(end) {
		return Path{}, false
	}

	dist := make(map[int]float64, len(g.adjacency))
	prev := make(map[int]int, len(g.adjacency))
	prevEdge := make(map[int]int, len(g.adjacency))

	dist[start] = 0
	pq := &priorityQueue{{node: start, dist: 0}}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if best, ok := dist[item.node]; ok && item.dist > best {
			continue
		}
		if item.node == end {
			break
		}

		for _, arc := range g.adjacency[item.node] {
			alt := item.dist + arc.Weight
			if best, ok := dist[arc.To]; ok && alt >= best {
				continue
			}
			dist[arc.To] = alt
			prev[arc.To] = item.node
			prevEdge[arc.To] = arc.HallwayID
			heap.Push(pq, queueItem{node: arc.To, dist: alt})
		}
	}

	total, reached := dist[end]
	if !reached || math.IsInf(total, 1) {
		return Path{}, false
	}

	spaces := []int{end}
	var hallways []int
	for node := end; node != start; {
		hallways = append(hallways, prevEdge[node])
		node = prev[node]
		spaces = append(spaces, node)
	}
	reverse(spaces)
	reverse(hallways)

	if hallways == nil {
		hallways = []int{}
	}

	return Path{SpaceIDs: spaces, HallwayIDs: hallways, Distance: total}, true
}

func reverse(ids []int) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
