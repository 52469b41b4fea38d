package floorplan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	assert.Equal(t, DirectionLeaving, ParseDirection("leaving"))
	assert.Equal(t, DirectionArriving, ParseDirection(" Arriving "))
	assert.Equal(t, DirectionAny, ParseDirection("any"))
	assert.Equal(t, DirectionAny, ParseDirection("sideways"))
	assert.Equal(t, DirectionAny, ParseDirection(""))
}

func TestAggregate_TwoStudents(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3"},
		Students: []StudentSchedule{
			{StudentID: "1", SpaceIDs: ids(a.ID, b.ID, c.ID)},
			{StudentID: "2", SpaceIDs: ids(a.ID, a.ID, c.ID)},
		},
	}

	result, err := Aggregate(context.Background(), m.BuildGraph(), sched, CongestionQuery{FromPeriod: 0, ToPeriod: 2}, 1)
	require.NoError(t, err)

	// Student 1 walks AB then BC; student 2 stays put then walks AB+BC.
	assert.Equal(t, map[int]int{1: 2, 2: 2}, result.HallwayCounts)
	assert.Equal(t, 3, result.TotalTrips)
	assert.Equal(t, 2, result.MaxCount())
	assert.Equal(t, []HallwayCount{{HallwayID: 1, Count: 2}, {HallwayID: 2, Count: 2}}, result.SortedCounts())
}

func TestAggregate_SkipsUnresolvedAndShortSchedules(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3"},
		Students: []StudentSchedule{
			{StudentID: "unresolved", SpaceIDs: ids(a.ID, -1, c.ID)},
			{StudentID: "short", SpaceIDs: ids(a.ID, b.ID)},
			{StudentID: "walker", SpaceIDs: ids(c.ID, b.ID, b.ID)},
		},
	}

	result, err := Aggregate(context.Background(), m.BuildGraph(), sched, CongestionQuery{FromPeriod: 0, ToPeriod: 2}, 2)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{2: 1}, result.HallwayCounts)
	assert.Equal(t, 1, result.TotalTrips)
}

func TestAggregate_UnreachablePairsAreNotCounted(t *testing.T) {
	m, a, _, _ := lineMap()
	island := m.addSpace("Island", "Classroom", 5, 5)
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2"},
		Students:    []StudentSchedule{{StudentID: "1", SpaceIDs: ids(a.ID, island.ID)}},
	}

	result, err := Aggregate(context.Background(), m.BuildGraph(), sched, CongestionQuery{FromPeriod: 0, ToPeriod: 1}, 1)
	require.NoError(t, err)

	assert.Empty(t, result.HallwayCounts)
	assert.Zero(t, result.TotalTrips)
	assert.Zero(t, result.MaxCount())
}

func TestAggregate_InvalidRangeIsEmpty(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3"},
		Students:    []StudentSchedule{{StudentID: "1", SpaceIDs: ids(a.ID, b.ID, c.ID)}},
	}

	for _, q := range []CongestionQuery{
		{FromPeriod: 1, ToPeriod: 1},
		{FromPeriod: 2, ToPeriod: 1},
		{FromPeriod: -1, ToPeriod: 1},
		{FromPeriod: 0, ToPeriod: 3},
	} {
		assert.False(t, q.Valid(len(sched.PeriodNames)))

		result, err := Aggregate(context.Background(), m.BuildGraph(), sched, q, 1)
		require.NoError(t, err)
		assert.Empty(t, result.HallwayCounts)
		assert.Zero(t, result.TotalTrips)
	}
}

func TestAggregate_WideningWindowNeverDecreasesTrips(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3", "P4", "P5"},
		Students: []StudentSchedule{
			{StudentID: "1", SpaceIDs: ids(a.ID, b.ID, c.ID, a.ID, a.ID)},
			{StudentID: "2", SpaceIDs: ids(c.ID, c.ID, -1, b.ID, a.ID)},
			{StudentID: "3", SpaceIDs: ids(b.ID, a.ID, c.ID, c.ID, b.ID)},
			{StudentID: "4", SpaceIDs: ids(a.ID, a.ID, a.ID, a.ID, c.ID)},
		},
	}
	g := m.BuildGraph()

	previous := 0
	for to := 1; to < len(sched.PeriodNames); to++ {
		result, err := Aggregate(context.Background(), g, sched, CongestionQuery{FromPeriod: 0, ToPeriod: to}, 2)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.TotalTrips, previous, "window [0, %d]", to)
		previous = result.TotalTrips
	}
}

func TestAggregate_DirectionFilterPartition(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3"},
		Students: []StudentSchedule{
			// A->B arrives at B, B->C leaves B
			{StudentID: "1", SpaceIDs: ids(a.ID, b.ID, c.ID)},
			// C->B arrives at B, B->B starts and ends at B and is not a trip
			{StudentID: "2", SpaceIDs: ids(c.ID, b.ID, b.ID)},
		},
	}
	g := m.BuildGraph()

	run := func(direction Direction) CongestionResult {
		filter := b.ID
		result, err := Aggregate(context.Background(), g, sched, CongestionQuery{
			FromPeriod:    0,
			ToPeriod:      2,
			FilterSpaceID: &filter,
			Direction:     direction,
		}, 1)
		require.NoError(t, err)
		return result
	}

	leaving := run(DirectionLeaving)
	arriving := run(DirectionArriving)
	anyDirection := run(DirectionAny)
	unknown := run(Direction("sideways"))

	assert.Equal(t, 1, leaving.TotalTrips)
	assert.Equal(t, 2, arriving.TotalTrips)
	assert.Equal(t, leaving.TotalTrips+arriving.TotalTrips, anyDirection.TotalTrips)
	assert.Equal(t, map[int]int{1: 1, 2: 2}, anyDirection.HallwayCounts)
	assert.Equal(t, anyDirection, unknown)
}

func TestAggregate_WorkerCountDoesNotChangeResult(t *testing.T) {
	m, a, b, c := lineMap()
	d := m.addSpace("D", "Classroom", 2, 1)
	m.addHallway("CD", c, d)

	rooms := []int{a.ID, b.ID, c.ID, d.ID}
	students := make([]StudentSchedule, 0, 50)
	for i := 0; i < 50; i++ {
		students = append(students, StudentSchedule{
			SpaceIDs: ids(rooms[i%4], rooms[(i/4)%4], rooms[(i*7)%4], rooms[(i+1)%4]),
		})
	}
	sched := &Schedule{PeriodNames: []string{"P1", "P2", "P3", "P4"}, Students: students}
	g := m.BuildGraph()
	q := CongestionQuery{FromPeriod: 0, ToPeriod: 3}

	sequential, err := Aggregate(context.Background(), g, sched, q, 1)
	require.NoError(t, err)
	require.NotZero(t, sequential.TotalTrips)

	for _, workers := range []int{0, 3, 8, 200} {
		parallel, err := Aggregate(context.Background(), g, sched, q, workers)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)
	}
}

func TestAggregate_Canceled(t *testing.T) {
	m, a, b, c := lineMap()
	sched := &Schedule{
		PeriodNames: []string{"P1", "P2", "P3"},
		Students:    []StudentSchedule{{StudentID: "1", SpaceIDs: ids(a.ID, b.ID, c.ID)}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Aggregate(ctx, m.BuildGraph(), sched, CongestionQuery{FromPeriod: 0, ToPeriod: 2}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
