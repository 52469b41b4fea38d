package floorplan

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryDriver answers every query with the rows registered for its DSN
// and records every exec.
type memoryDriver struct {
	mu     sync.Mutex
	tables map[string][][]driver.Value
	execs  map[string][][]driver.Value
}

var testDriver = &memoryDriver{
	tables: map[string][][]driver.Value{},
	execs:  map[string][][]driver.Value{},
}

func init() {
	sql.Register("floorplan-memory", testDriver)
}

func (d *memoryDriver) Open(dsn string) (driver.Conn, error) {
	return &memoryConn{driver: d, dsn: dsn}, nil
}

type memoryConn struct {
	driver *memoryDriver
	dsn    string
}

func (c *memoryConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

func (c *memoryConn) Close() error { return nil }

func (c *memoryConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("transactions not supported")
}

func (c *memoryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()
	return &memoryRows{rows: c.driver.tables[c.dsn]}, nil
}

func (c *memoryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg.Value
	}
	c.driver.execs[c.dsn] = append(c.driver.execs[c.dsn], values)
	return driver.RowsAffected(1), nil
}

type memoryRows struct {
	rows [][]driver.Value
	next int
}

func (r *memoryRows) Columns() []string { return []string{"id", "data"} }

func (r *memoryRows) Close() error { return nil }

func (r *memoryRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

func openMemoryDB(t *testing.T, rows [][]driver.Value) (*sql.DB, string) {
	t.Helper()
	dsn := t.Name()

	testDriver.mu.Lock()
	testDriver.tables[dsn] = rows
	testDriver.mu.Unlock()

	db, err := sql.Open("floorplan-memory", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dsn
}

func TestPostgresRepository_LoadMapsSkipsCorruptBlobs(t *testing.T) {
	db, _ := openMemoryDB(t, [][]driver.Value{
		{int64(1), []byte(`{"id":1,"name":"Main","spaces":[{"id":1,"name":"A","type":"Classroom","x":0.1,"y":0.2}],"hallways":[],"next_space_id":2,"next_hallway_id":1}`)},
		{int64(2), []byte(`{corrupt`)},
		{int64(3), []byte(`{"id":99,"name":"Annex","spaces":[],"hallways":[],"next_space_id":1,"next_hallway_id":1}`)},
	})
	repo := NewPostgresRepository(db, discardLogger())

	snapshots, err := repo.LoadMaps(context.Background())

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].ID)
	assert.Equal(t, "Main", snapshots[0].Name)
	require.Len(t, snapshots[0].Spaces, 1)
	assert.Equal(t, "A", snapshots[0].Spaces[0].Name)
	assert.Equal(t, 3, snapshots[1].ID, "row id wins over the id inside the blob")
}

func TestPostgresRepository_SaveAndDelete(t *testing.T) {
	db, dsn := openMemoryDB(t, nil)
	repo := NewPostgresRepository(db, discardLogger())
	ctx := context.Background()

	m := NewMap(7, "Gym")
	m.addSpace("Court", "Gym", 0.5, 0.5)
	require.NoError(t, repo.SaveMap(ctx, m.Snapshot()))
	require.NoError(t, repo.DeleteMap(ctx, 7))

	testDriver.mu.Lock()
	execs := testDriver.execs[dsn]
	testDriver.mu.Unlock()

	require.Len(t, execs, 2)
	require.Len(t, execs[0], 3)
	assert.Equal(t, int64(7), execs[0][0])
	assert.Equal(t, "Gym", execs[0][1])
	assert.Contains(t, execs[0][2], `"name":"Court"`)
	assert.Equal(t, []driver.Value{int64(7)}, execs[1])
}
