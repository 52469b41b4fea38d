package floorplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateListDelete(t *testing.T) {
	store := NewStore()
	assert.NotEmpty(t, store.Epoch())

	first := store.Create("Ground floor")
	second := store.Create("Annex")
	third := store.Create("Gym")

	assert.Equal(t, []int{1, 2, 3}, []int{first.ID(), second.ID(), third.ID()})
	assert.Equal(t, 3, store.Len())

	require.True(t, store.Delete(second.ID()))
	assert.False(t, store.Delete(second.ID()))

	_, ok := store.Get(second.ID())
	assert.False(t, ok)

	var listed []int
	for _, m := range store.List() {
		listed = append(listed, m.ID())
	}
	assert.Equal(t, []int{1, 3}, listed)

	fourth := store.Create("Library")
	assert.Equal(t, 4, fourth.ID(), "map ids are never reused")
}

func TestStore_PutAdvancesIDs(t *testing.T) {
	store := NewStore()
	store.Put(NewMapFromSnapshot(MapSnapshot{ID: 7, Name: "Restored"}))

	m, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, "Restored", m.Summary().Name)

	next := store.Create("New")
	assert.Equal(t, 8, next.ID())
}

func TestNewMapFromSnapshot_RaisesCounters(t *testing.T) {
	m := NewMapFromSnapshot(MapSnapshot{
		ID:            3,
		Name:          "Corrupt counters",
		Spaces:        []Space{{ID: 9, Name: "A"}},
		Hallways:      []Hallway{{ID: 4, FromSpaceID: 9, ToSpaceID: 9}},
		NextSpaceID:   2,
		NextHallwayID: 1,
	})

	snapshot := m.Snapshot()
	assert.Equal(t, 10, snapshot.NextSpaceID)
	assert.Equal(t, 5, snapshot.NextHallwayID)
}
