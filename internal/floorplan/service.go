package floorplan

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"floorplan-server/internal/schedule"
	"floorplan-server/internal/shared/errors"
	"floorplan-server/internal/shared/metrics"
)

type Options struct {
	SnapThreshold     float64
	UpstairsProxyName string
	CongestionWorkers int
}

type Service struct {
	store    *Store
	repo     Repository
	cache    CongestionCache
	resolver RoomResolver
	opts     Options
	logger   *slog.Logger

	// shortestPath is the routing engine; swapped in tests to observe calls
	shortestPath func(g *Graph, from, to int) (Path, bool)
}

// NewService wires the floorplan service. repo and cache may be nil, in which
// case maps are not persisted and congestion is always recomputed.
func NewService(store *Store, repo Repository, cache CongestionCache, opts Options, logger *slog.Logger) *Service {
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = DefaultSnapThreshold
	}
	if opts.CongestionWorkers < 1 {
		opts.CongestionWorkers = 1
	}

	logger.Debug("Initializing floorplan service",
		"snap_threshold", opts.SnapThreshold,
		"congestion_workers", opts.CongestionWorkers,
		"persistence", repo != nil,
		"congestion_cache", cache != nil)

	return &Service{
		store:        store,
		repo:         repo,
		cache:        cache,
		resolver:     NewRoomResolver(opts.UpstairsProxyName),
		opts:         opts,
		logger:       logger,
		shortestPath: (*Graph).ShortestPath,
	}
}

type SpaceInput struct {
	Name string
	Type string
	X    float64
	Y    float64
}

type HallwayInput struct {
	Name string
	X1   float64
	Y1   float64
	X2   float64
	Y2   float64
}

type DeleteSpaceResult struct {
	DeletedSpaceID    int `json:"deleted_space_id"`
	RemainingSpaces   int `json:"remaining_spaces"`
	RemainingHallways int `json:"remaining_hallways"`
}

type DeleteHallwayResult struct {
	DeletedHallwayID  int `json:"deleted_hallway_id"`
	RemainingHallways int `json:"remaining_hallways"`
}

type RouteResult struct {
	SpaceIDs      []int   `json:"space_ids"`
	HallwayIDs    []int   `json:"hallway_ids"`
	TotalSegments int     `json:"total_segments"`
	Distance      float64 `json:"distance"`
	Message       string  `json:"message,omitempty"`
}

type CongestionReport struct {
	PeriodFrom    string         `json:"period_from"`
	PeriodTo      string         `json:"period_to"`
	HallwayCounts []HallwayCount `json:"hallway_counts"`
	TotalTrips    int            `json:"total_trips"`
	MaxCount      int            `json:"max_count"`
}

type ScheduleLoadResult struct {
	NumStudents    int      `json:"num_students"`
	PeriodNames    []string `json:"period_names"`
	UnmatchedRooms []string `json:"unmatched_rooms"`
}

type ScheduleInfo struct {
	PeriodNames []string `json:"period_names"`
	NumStudents int      `json:"num_students"`
}

// LoadPersisted restores every saved map into the store
func (s *Service) LoadPersisted(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	snapshots, err := s.repo.LoadMaps(ctx)
	if err != nil {
		return errors.WrapInternal("failed to load persisted maps", err)
	}

	for _, snapshot := range snapshots {
		s.store.Put(NewMapFromSnapshot(snapshot))
	}

	s.logger.Info("Persisted maps restored", "component", "floorplan_service", "count", len(snapshots))
	return nil
}

func (s *Service) getMap(mapID int) (*Map, error) {
	m, ok := s.store.Get(mapID)
	if !ok {
		return nil, errors.NotFoundf("map not found with id: %d", mapID)
	}
	return m, nil
}

// lockMap fetches a map and takes its write lock. A map deleted while the
// caller waited for the lock reports NotFound.
func (s *Service) lockMap(mapID int) (*Map, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.deleted {
		m.mu.Unlock()
		return nil, errors.NotFoundf("map not found with id: %d", mapID)
	}
	return m, nil
}

// persistLocked saves the map while the caller still holds its write lock.
// The in-memory map stays authoritative, so a failed save is only logged.
// Deleted maps are never written back.
func (s *Service) persistLocked(ctx context.Context, m *Map) {
	if s.repo == nil || m.deleted {
		return
	}
	if err := s.repo.SaveMap(ctx, m.snapshotLocked()); err != nil {
		s.logger.Error("Failed to persist map",
			"component", "floorplan_service",
			"map_id", m.id,
			"error", err)
	}
}

func (s *Service) CreateMap(ctx context.Context, name string) (MapSnapshot, error) {
	if name == "" {
		return MapSnapshot{}, errors.Validation("map name is required")
	}

	m := s.store.Create(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	s.persistLocked(ctx, m)
	metrics.MapMutations.WithLabelValues("create_map").Inc()

	s.logger.Info("Map created", "component", "floorplan_service", "map_id", m.id, "name", name)
	return m.snapshotLocked(), nil
}

func (s *Service) ListMaps(ctx context.Context) []MapSummary {
	maps := s.store.List()
	summaries := make([]MapSummary, 0, len(maps))
	for _, m := range maps {
		summaries = append(summaries, m.Summary())
	}
	return summaries
}

func (s *Service) GetMap(ctx context.Context, mapID int) (MapSnapshot, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return MapSnapshot{}, err
	}
	return m.Snapshot(), nil
}

// DeleteMap removes the map under its write lock, so a mutation already
// holding the map cannot persist it again afterwards.
func (s *Service) DeleteMap(ctx context.Context, mapID int) error {
	m, err := s.lockMap(mapID)
	if err != nil {
		return err
	}
	defer m.mu.Unlock()

	m.deleted = true
	if !s.store.Delete(mapID) {
		return errors.NotFoundf("map not found with id: %d", mapID)
	}

	if s.repo != nil {
		if err := s.repo.DeleteMap(ctx, mapID); err != nil {
			s.logger.Error("Failed to delete persisted map", "component", "floorplan_service", "map_id", mapID, "error", err)
		}
	}
	metrics.MapMutations.WithLabelValues("delete_map").Inc()

	s.logger.Info("Map deleted", "component", "floorplan_service", "map_id", mapID)
	return nil
}

func (s *Service) ListSpaces(ctx context.Context, mapID int) ([]Space, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return nil, err
	}
	return m.Snapshot().Spaces, nil
}

func (s *Service) ListHallways(ctx context.Context, mapID int) ([]Hallway, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return nil, err
	}
	return m.Snapshot().Hallways, nil
}

func (s *Service) CreateSpace(ctx context.Context, mapID int, input SpaceInput) (Space, error) {
	m, err := s.lockMap(mapID)
	if err != nil {
		return Space{}, err
	}
	defer m.mu.Unlock()

	space := m.addSpace(input.Name, input.Type, input.X, input.Y)
	s.persistLocked(ctx, m)
	metrics.MapMutations.WithLabelValues("create_space").Inc()

	s.logger.Debug("Space created",
		"component", "floorplan_service",
		"map_id", mapID,
		"space_id", space.ID,
		"name", space.Name,
		"type", space.Type)
	return space, nil
}

func (s *Service) DeleteSpace(ctx context.Context, mapID, spaceID int) (DeleteSpaceResult, error) {
	m, err := s.lockMap(mapID)
	if err != nil {
		return DeleteSpaceResult{}, err
	}
	defer m.mu.Unlock()

	hallwaysBefore := len(m.hallways)
	if !m.removeSpace(spaceID) {
		return DeleteSpaceResult{}, errors.NotFoundf("space not found with id: %d", spaceID)
	}
	s.persistLocked(ctx, m)
	metrics.MapMutations.WithLabelValues("delete_space").Inc()

	result := DeleteSpaceResult{
		DeletedSpaceID:    spaceID,
		RemainingSpaces:   len(m.spaces),
		RemainingHallways: len(m.hallways),
	}

	s.logger.Debug("Space deleted",
		"component", "floorplan_service",
		"map_id", mapID,
		"space_id", spaceID,
		"cascaded_hallways", hallwaysBefore-result.RemainingHallways)
	return result, nil
}

// CreateHallway snaps both endpoints and adds the hallway under one write
// lock, so concurrent hallways sharing a new endpoint create one junction.
func (s *Service) CreateHallway(ctx context.Context, mapID int, input HallwayInput) (Hallway, error) {
	m, err := s.lockMap(mapID)
	if err != nil {
		return Hallway{}, err
	}
	defer m.mu.Unlock()

	from, fromCreated := m.findOrCreateSpaceAt(input.X1, input.Y1, s.opts.SnapThreshold)
	to, toCreated := m.findOrCreateSpaceAt(input.X2, input.Y2, s.opts.SnapThreshold)
	recordSnap(fromCreated)
	recordSnap(toCreated)

	hallway := m.addHallway(input.Name, from, to)
	s.persistLocked(ctx, m)
	metrics.MapMutations.WithLabelValues("create_hallway").Inc()

	s.logger.Debug("Hallway created",
		"component", "floorplan_service",
		"map_id", mapID,
		"hallway_id", hallway.ID,
		"from_space_id", from.ID,
		"to_space_id", to.ID,
		"created_from", fromCreated,
		"created_to", toCreated)
	return hallway, nil
}

func recordSnap(created bool) {
	if created {
		metrics.SnappedEndpoints.WithLabelValues("created").Inc()
		return
	}
	metrics.SnappedEndpoints.WithLabelValues("snapped").Inc()
}

func (s *Service) DeleteHallway(ctx context.Context, mapID, hallwayID int) (DeleteHallwayResult, error) {
	m, err := s.lockMap(mapID)
	if err != nil {
		return DeleteHallwayResult{}, err
	}
	defer m.mu.Unlock()

	if !m.removeHallway(hallwayID) {
		return DeleteHallwayResult{}, errors.NotFoundf("hallway not found with id: %d", hallwayID)
	}
	s.persistLocked(ctx, m)
	metrics.MapMutations.WithLabelValues("delete_hallway").Inc()

	return DeleteHallwayResult{
		DeletedHallwayID:  hallwayID,
		RemainingHallways: len(m.hallways),
	}, nil
}

func (s *Service) SetFloorplanImage(ctx context.Context, mapID int, url string) error {
	m, err := s.lockMap(mapID)
	if err != nil {
		return err
	}
	defer m.mu.Unlock()

	m.floorplanURL = url
	s.persistLocked(ctx, m)
	return nil
}

// Route answers the shortest walking route between two spaces. A request
// from a space to itself is answered without running the engine.
func (s *Service) Route(ctx context.Context, mapID, fromSpaceID, toSpaceID int) (RouteResult, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return RouteResult{}, err
	}

	m.mu.RLock()
	_, fromOK := m.spaceByID(fromSpaceID)
	_, toOK := m.spaceByID(toSpaceID)
	var g *Graph
	if fromOK && toOK && fromSpaceID != toSpaceID {
		g = BuildGraph(m.spaces, m.hallways)
	}
	m.mu.RUnlock()

	if !fromOK || !toOK {
		metrics.RouteQueries.WithLabelValues("not_found").Inc()
		return RouteResult{}, errors.NotFoundf("one or both spaces not found: %d, %d", fromSpaceID, toSpaceID)
	}

	if fromSpaceID == toSpaceID {
		metrics.RouteQueries.WithLabelValues("identity").Inc()
		return RouteResult{
			SpaceIDs:   []int{fromSpaceID},
			HallwayIDs: []int{},
			Message:    "Start and end are the same space.",
		}, nil
	}

	path, ok := s.shortestPath(g, fromSpaceID, toSpaceID)
	if !ok {
		metrics.RouteQueries.WithLabelValues("unreachable").Inc()
		return RouteResult{}, errors.Unreachablef("no route found between spaces %d and %d", fromSpaceID, toSpaceID)
	}

	metrics.RouteQueries.WithLabelValues("ok").Inc()
	return RouteResult{
		SpaceIDs:      path.SpaceIDs,
		HallwayIDs:    path.HallwayIDs,
		TotalSegments: len(path.HallwayIDs),
		Distance:      path.Distance,
	}, nil
}

// Congestion aggregates hallway usage over the transitions between
// q.FromPeriod and q.ToPeriod for the map's loaded schedule. A filter space
// that is not on the map matches no transition.
func (s *Service) Congestion(ctx context.Context, mapID int, q CongestionQuery) (CongestionReport, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return CongestionReport{}, err
	}

	if q.Direction == "" {
		q.Direction = DirectionAny
	}

	m.mu.RLock()
	sched := m.schedule
	revision := m.revision
	var g *Graph
	if sched != nil && len(sched.PeriodNames) > 0 && len(sched.Students) > 0 && q.Valid(len(sched.PeriodNames)) {
		g = BuildGraph(m.spaces, m.hallways)
	}
	m.mu.RUnlock()

	if sched == nil || len(sched.PeriodNames) == 0 || len(sched.Students) == 0 {
		return CongestionReport{}, errors.NoSchedule("no schedule loaded yet")
	}
	if !q.Valid(len(sched.PeriodNames)) {
		return CongestionReport{}, errors.InvalidRangef(
			"period range [%d, %d] is invalid for %d periods; need 0 <= from < to < %d",
			q.FromPeriod, q.ToPeriod, len(sched.PeriodNames), len(sched.PeriodNames))
	}

	logger := s.logger.With(
		"component", "floorplan_service",
		"operation", "congestion",
		"map_id", mapID,
		"from_period", q.FromPeriod,
		"to_period", q.ToPeriod,
		"direction", q.Direction)

	key := congestionCacheKey(s.store.Epoch(), mapID, revision, q)
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CongestionCache.WithLabelValues("error").Inc()
			logger.Warn("Congestion cache read failed", "error", err)
		case hit:
			metrics.CongestionCache.WithLabelValues("hit").Inc()
			logger.Debug("Congestion served from cache")
			return *cached, nil
		default:
			metrics.CongestionCache.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	result, err := Aggregate(ctx, g, sched, q, s.opts.CongestionWorkers)
	if err != nil {
		return CongestionReport{}, errors.WrapInternal("congestion aggregation aborted", err)
	}
	elapsed := time.Since(start)
	metrics.CongestionDuration.Observe(elapsed.Seconds())

	report := CongestionReport{
		PeriodFrom:    sched.PeriodNames[q.FromPeriod],
		PeriodTo:      sched.PeriodNames[q.ToPeriod],
		HallwayCounts: result.SortedCounts(),
		TotalTrips:    result.TotalTrips,
		MaxCount:      result.MaxCount(),
	}

	logger.Info("Congestion computed",
		"students", len(sched.Students),
		"total_trips", report.TotalTrips,
		"hallways_used", len(report.HallwayCounts),
		"duration_ms", elapsed.Milliseconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			logger.Warn("Congestion cache write failed", "error", err)
		}
	}

	return report, nil
}

// LoadSchedule resolves every room label against the map and replaces the
// map's schedule. Unresolvable labels become nil entries and are reported.
func (s *Service) LoadSchedule(ctx context.Context, mapID int, table *schedule.Table) (ScheduleLoadResult, error) {
	if table == nil || len(table.PeriodNames) == 0 {
		return ScheduleLoadResult{}, errors.Validation("schedule must contain at least one period")
	}

	m, err := s.lockMap(mapID)
	if err != nil {
		return ScheduleLoadResult{}, err
	}
	defer m.mu.Unlock()

	unmatched := make(map[string]struct{})
	students := make([]StudentSchedule, 0, len(table.Rows))
	for _, row := range table.Rows {
		spaceIDs := make([]*int, len(table.PeriodNames))
		for p := range table.PeriodNames {
			if p >= len(row.Rooms) || row.Rooms[p] == "" {
				continue
			}
			spaceIDs[p] = s.resolver.resolve(m, row.Rooms[p])
			if spaceIDs[p] == nil {
				unmatched[row.Rooms[p]] = struct{}{}
			}
		}
		students = append(students, StudentSchedule{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			SpaceIDs:    spaceIDs,
		})
	}

	periodNames := append([]string(nil), table.PeriodNames...)
	m.setSchedule(&Schedule{PeriodNames: periodNames, Students: students})

	unmatchedRooms := make([]string, 0, len(unmatched))
	for room := range unmatched {
		unmatchedRooms = append(unmatchedRooms, room)
	}
	sort.Strings(unmatchedRooms)

	s.logger.Info("Schedule loaded",
		"component", "floorplan_service",
		"map_id", mapID,
		"students", len(students),
		"periods", periodNames,
		"unmatched_rooms", len(unmatchedRooms))

	return ScheduleLoadResult{
		NumStudents:    len(students),
		PeriodNames:    periodNames,
		UnmatchedRooms: unmatchedRooms,
	}, nil
}

func (s *Service) ScheduleInfo(ctx context.Context, mapID int) (ScheduleInfo, error) {
	m, err := s.getMap(mapID)
	if err != nil {
		return ScheduleInfo{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	info := ScheduleInfo{PeriodNames: []string{}}
	if m.schedule != nil {
		info.PeriodNames = append(info.PeriodNames, m.schedule.PeriodNames...)
		info.NumStudents = len(m.schedule.Students)
	}
	return info, nil
}
