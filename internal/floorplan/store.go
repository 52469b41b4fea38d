package floorplan

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the process-wide registry of maps. It is created at startup and
// injected into the service; it never coordinates across maps beyond the
// registry itself.
type Store struct {
	mu        sync.RWMutex
	maps      map[int]*Map
	order     []int
	nextMapID int
	// epoch distinguishes this process's map revisions from any earlier run
	epoch string
}

func NewStore() *Store {
	return &Store{
		maps:      make(map[int]*Map),
		nextMapID: 1,
		epoch:     uuid.NewString(),
	}
}

func (s *Store) Epoch() string {
	return s.epoch
}

func (s *Store) Create(name string) *Map {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := NewMap(s.nextMapID, name)
	s.nextMapID++
	s.maps[m.id] = m
	s.order = append(s.order, m.id)
	return m
}

// Put registers an existing map, replacing any map with the same id
func (s *Store) Put(m *Map) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.maps[m.id]; !exists {
		s.order = append(s.order, m.id)
	}
	s.maps[m.id] = m
	s.nextMapID = max(s.nextMapID, m.id+1)
}

func (s *Store) Get(id int) (*Map, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[id]
	return m, ok
}

// List returns maps in creation order
func (s *Store) List() []*Map {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maps := make([]*Map, 0, len(s.order))
	for _, id := range s.order {
		maps = append(maps, s.maps[id])
	}
	return maps
}

func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.maps[id]; !ok {
		return false
	}
	delete(s.maps, id)

	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.maps)
}
