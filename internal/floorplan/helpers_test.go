package floorplan

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ids builds a schedule row; a negative id stands for an unresolved room
func ids(values ...int) []*int {
	out := make([]*int, len(values))
	for i, v := range values {
		if v < 0 {
			continue
		}
		id := v
		out[i] = &id
	}
	return out
}

// lineMap builds A(0,0) - B(1,0) - C(2,0) with hallways AB and BC
func lineMap() (*Map, Space, Space, Space) {
	m := NewMap(1, "Line")
	a := m.addSpace("A", "Classroom", 0, 0)
	b := m.addSpace("B", "Classroom", 1, 0)
	c := m.addSpace("C", "Classroom", 2, 0)
	m.addHallway("AB", a, b)
	m.addHallway("BC", b, c)
	return m, a, b, c
}
