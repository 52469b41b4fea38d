package floorplan

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

type Direction string

const (
	DirectionAny      Direction = "any"
	DirectionLeaving  Direction = "leaving"
	DirectionArriving Direction = "arriving"
)

// ParseDirection maps unrecognized values to DirectionAny
func ParseDirection(s string) Direction {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionLeaving:
		return DirectionLeaving
	case DirectionArriving:
		return DirectionArriving
	default:
		return DirectionAny
	}
}

// CongestionQuery selects the transitions p -> p+1 for p in [FromPeriod, ToPeriod).
type CongestionQuery struct {
	FromPeriod    int
	ToPeriod      int
	FilterSpaceID *int
	Direction     Direction
}

// Valid reports whether 0 <= FromPeriod < ToPeriod < periodCount
func (q CongestionQuery) Valid(periodCount int) bool {
	return q.FromPeriod >= 0 && q.FromPeriod < q.ToPeriod && q.ToPeriod < periodCount
}

// matches applies the endpoint/direction filter to one transition
func (q CongestionQuery) matches(from, to int) bool {
	if q.FilterSpaceID == nil {
		return true
	}
	target := *q.FilterSpaceID

	switch q.Direction {
	case DirectionLeaving:
		return from == target
	case DirectionArriving:
		return to == target
	default:
		return from == target || to == target
	}
}

// CongestionResult tallies hallway usage for one window. Hallways that were
// never traversed are absent rather than zero.
//
// Results for overlapping windows share transitions; summing TotalTrips
// across separate calls double counts them.
type CongestionResult struct {
	HallwayCounts map[int]int
	TotalTrips    int
}

type HallwayCount struct {
	HallwayID int `json:"hallway_id"`
	Count     int `json:"count"`
}

func (r CongestionResult) MaxCount() int {
	maxCount := 0
	for _, c := range r.HallwayCounts {
		maxCount = max(maxCount, c)
	}
	return maxCount
}

// SortedCounts lists the counts ordered by hallway id
func (r CongestionResult) SortedCounts() []HallwayCount {
	counts := make([]HallwayCount, 0, len(r.HallwayCounts))
	for id, c := range r.HallwayCounts {
		counts = append(counts, HallwayCount{HallwayID: id, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].HallwayID < counts[j].HallwayID })
	return counts
}

func (r *CongestionResult) merge(other CongestionResult) {
	for id, c := range other.HallwayCounts {
		r.HallwayCounts[id] += c
	}
	r.TotalTrips += other.TotalTrips
}

// Aggregate routes every eligible student transition in the window over g and
// counts hallway usage. Students are split across workers, each with its own
// partial result and route memo, merged once all workers finish.
// An invalid window yields an empty result.
func Aggregate(ctx context.Context, g *Graph, schedule *Schedule, q CongestionQuery, workers int) (CongestionResult, error) {
	result := CongestionResult{HallwayCounts: map[int]int{}}
	if schedule == nil || !q.Valid(len(schedule.PeriodNames)) {
		return result, nil
	}

	students := schedule.Students
	if len(students) == 0 {
		return result, nil
	}

	workers = max(1, min(workers, len(students)))
	chunk := (len(students) + workers - 1) / workers
	partials := make([]CongestionResult, workers)

	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(students))
		if lo >= hi {
			continue
		}

		eg.Go(func() error {
			partial, err := aggregateStudents(egCtx, g, students[lo:hi], q)
			if err != nil {
				return err
			}
			partials[w] = partial
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return CongestionResult{HallwayCounts: map[int]int{}}, err
	}

	for _, partial := range partials {
		if partial.HallwayCounts != nil {
			result.merge(partial)
		}
	}

	return result, nil
}

type routeKey struct {
	from, to int
}

type memoEntry struct {
	path Path
	ok   bool
}

func aggregateStudents(ctx context.Context, g *Graph, students []StudentSchedule, q CongestionQuery) (CongestionResult, error) {
	result := CongestionResult{HallwayCounts: map[int]int{}}
	memo := make(map[routeKey]memoEntry)

	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if len(student.SpaceIDs) <= q.ToPeriod {
			continue
		}

		for p := q.FromPeriod; p < q.ToPeriod; p++ {
			fromID, toID := student.SpaceIDs[p], student.SpaceIDs[p+1]
			if fromID == nil || toID == nil || *fromID == *toID {
				continue
			}
			if !q.matches(*fromID, *toID) {
				continue
			}

			key := routeKey{from: *fromID, to: *toID}
			entry, seen := memo[key]
			if !seen {
				path, ok := g.ShortestPath(*fromID, *toID)
				entry = memoEntry{path: path, ok: ok}
				memo[key] = entry
			}
			if !entry.ok || len(entry.path.HallwayIDs) == 0 {
				continue
			}

			result.TotalTrips++
			for _, hallwayID := range entry.path.HallwayIDs {
				result.HallwayCounts[hallwayID]++
			}
		}
	}

	return result, nil
}
