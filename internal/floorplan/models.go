package floorplan

import (
	"sync"
)

const (
	// SpaceTypeIntersection is assigned to junctions created by the snapper
	SpaceTypeIntersection = "Intersection"

	// DefaultSnapThreshold is the snapping radius in normalized floorplan units
	DefaultSnapThreshold = 0.03
)

type Space struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Hallway is an undirected edge between two spaces.
//
// X1, Y1, X2, Y2 are copied from the endpoint spaces when the hallway is
// created and are never kept in sync afterwards. They are a rendering hint
// only; routing reads the live space coordinates.
type Hallway struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	FromSpaceID int     `json:"from_space_id"`
	ToSpaceID   int     `json:"to_space_id"`
}

type StudentSchedule struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	// SpaceIDs is aligned with Schedule.PeriodNames; nil means the room could not be resolved
	SpaceIDs []*int `json:"space_ids"`
}

// Schedule is replaced wholesale on every load and never mutated afterwards,
// so queries may keep a reference after releasing the map lock.
type Schedule struct {
	PeriodNames []string          `json:"period_names"`
	Students    []StudentSchedule `json:"students"`
}

// MapSnapshot is the persisted shape of a map. Schedules are never persisted.
type MapSnapshot struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Spaces        []Space   `json:"spaces"`
	Hallways      []Hallway `json:"hallways"`
	NextSpaceID   int       `json:"next_space_id"`
	NextHallwayID int       `json:"next_hallway_id"`
	FloorplanURL  string    `json:"floorplan_url,omitempty"`
}

type MapSummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	SpaceCount   int    `json:"space_count"`
	HallwayCount int    `json:"hallway_count"`
	HasSchedule  bool   `json:"has_schedule"`
	FloorplanURL string `json:"floorplan_url,omitempty"`
}

// Map owns one floorplan graph. Spaces and hallways are kept in insertion
// order, which decides nearest-neighbor ties and Dijkstra tie-breaking.
type Map struct {
	mu sync.RWMutex

	id            int
	name          string
	spaces        []Space
	hallways      []Hallway
	nextSpaceID   int
	nextHallwayID int
	floorplanURL  string

	schedule *Schedule
	// revision changes on every mutation and schedule load
	revision uint64
	// deleted is set under the write lock once the map leaves the store
	deleted bool
}

func NewMap(id int, name string) *Map {
	return &Map{
		id:            id,
		name:          name,
		nextSpaceID:   1,
		nextHallwayID: 1,
	}
}

// NewMapFromSnapshot restores a persisted map. Counters are raised past the
// highest id present so a corrupt blob cannot cause id reuse.
func NewMapFromSnapshot(s MapSnapshot) *Map {
	m := &Map{
		id:            s.ID,
		name:          s.Name,
		spaces:        append([]Space(nil), s.Spaces...),
		hallways:      append([]Hallway(nil), s.Hallways...),
		nextSpaceID:   max(s.NextSpaceID, 1),
		nextHallwayID: max(s.NextHallwayID, 1),
		floorplanURL:  s.FloorplanURL,
	}

	for _, sp := range m.spaces {
		m.nextSpaceID = max(m.nextSpaceID, sp.ID+1)
	}
	for _, h := range m.hallways {
		m.nextHallwayID = max(m.nextHallwayID, h.ID+1)
	}

	return m
}

func (m *Map) ID() int {
	return m.id
}

func (m *Map) Snapshot() MapSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Map) snapshotLocked() MapSnapshot {
	return MapSnapshot{
		ID:            m.id,
		Name:          m.name,
		Spaces:        append([]Space{}, m.spaces...),
		Hallways:      append([]Hallway{}, m.hallways...),
		NextSpaceID:   m.nextSpaceID,
		NextHallwayID: m.nextHallwayID,
		FloorplanURL:  m.floorplanURL,
	}
}

func (m *Map) Summary() MapSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MapSummary{
		ID:           m.id,
		Name:         m.name,
		SpaceCount:   len(m.spaces),
		HallwayCount: len(m.hallways),
		HasSchedule:  m.schedule != nil,
		FloorplanURL: m.floorplanURL,
	}
}

func (m *Map) spaceByID(id int) (Space, bool) {
	for _, s := range m.spaces {
		if s.ID == id {
			return s, true
		}
	}
	return Space{}, false
}

func (m *Map) spaceByName(name string) (Space, bool) {
	for _, s := range m.spaces {
		if s.Name == name {
			return s, true
		}
	}
	return Space{}, false
}

func (m *Map) addSpace(name, spaceType string, x, y float64) Space {
	space := Space{
		ID:   m.nextSpaceID,
		Name: name,
		Type: spaceType,
		X:    x,
		Y:    y,
	}
	m.nextSpaceID++
	m.spaces = append(m.spaces, space)
	m.revision++
	return space
}

// removeSpace deletes the space and every hallway that references it
func (m *Map) removeSpace(id int) bool {
	kept := m.spaces[:0]
	found := false
	for _, s := range m.spaces {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	m.spaces = kept

	if !found {
		return false
	}

	keptHallways := m.hallways[:0]
	for _, h := range m.hallways {
		if h.FromSpaceID == id || h.ToSpaceID == id {
			continue
		}
		keptHallways = append(keptHallways, h)
	}
	m.hallways = keptHallways
	m.revision++
	return true
}

func (m *Map) addHallway(name string, from, to Space) Hallway {
	hallway := Hallway{
		ID:          m.nextHallwayID,
		Name:        name,
		X1:          from.X,
		Y1:          from.Y,
		X2:          to.X,
		Y2:          to.Y,
		FromSpaceID: from.ID,
		ToSpaceID:   to.ID,
	}
	m.nextHallwayID++
	m.hallways = append(m.hallways, hallway)
	m.revision++
	return hallway
}

func (m *Map) removeHallway(id int) bool {
	kept := m.hallways[:0]
	found := false
	for _, h := range m.hallways {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	m.hallways = kept

	if found {
		m.revision++
	}
	return found
}

func (m *Map) setSchedule(schedule *Schedule) {
	m.schedule = schedule
	m.revision++
}
