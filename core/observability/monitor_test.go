package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/reactor-http/core/http"
)

func TestMonitorRecord(t *testing.T) {
	m := NewMonitor()

	m.Record("GET /api", 10*time.Millisecond, false)
	m.Record("GET /api", 20*time.Millisecond, false)
	m.Record("GET /api", 30*time.Millisecond, true)

	stats := m.Snapshot()
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, "GET /api", s.Route)
	assert.Equal(t, uint64(3), s.Count)
	assert.Equal(t, uint64(1), s.Errors)
	assert.Equal(t, 20*time.Millisecond, s.Avg)
	assert.Equal(t, 10*time.Millisecond, s.Min)
	assert.Equal(t, 30*time.Millisecond, s.Max)
	assert.Equal(t, uint64(0), s.Buckets[2])
	assert.Equal(t, uint64(3), s.Buckets[3], "10ms to 30ms share the [10ms, 50ms) bucket")
	assert.Equal(t, uint64(3), m.Total())
}

func TestMonitorDisabled(t *testing.T) {
	m := NewMonitor()
	m.SetEnabled(false)
	m.Record("GET /", time.Millisecond, false)
	assert.Empty(t, m.Snapshot())
	assert.Zero(t, m.Total())
}

func TestMonitorSnapshotSorted(t *testing.T) {
	m := NewMonitor()
	m.Record("POST /b", time.Millisecond, false)
	m.Record("GET /a", time.Millisecond, false)

	stats := m.Snapshot()
	require.Len(t, stats, 2)
	assert.Equal(t, "GET /a", stats[0].Route)
	assert.Equal(t, "POST /b", stats[1].Route)
}

func TestMonitorWrap(t *testing.T) {
	m := NewMonitor()

	ok := m.Wrap("GET /ok", func(*http.Request) *http.Response { return http.NewText("ok") })
	failing := m.Wrap("GET /fail", func(*http.Request) *http.Response { return http.NewStatus(503) })
	panicking := m.Wrap("GET /panic", func(*http.Request) *http.Response { panic("boom") })

	assert.Equal(t, 200, ok(&http.Request{}).Code)
	assert.Equal(t, 503, failing(&http.Request{}).Code)
	assert.PanicsWithValue(t, "boom", func() { panicking(&http.Request{}) })

	byRoute := map[string]RouteStats{}
	for _, s := range m.Snapshot() {
		byRoute[s.Route] = s
	}
	assert.Equal(t, uint64(0), byRoute["GET /ok"].Errors)
	assert.Equal(t, uint64(1), byRoute["GET /fail"].Errors)
	assert.Equal(t, uint64(1), byRoute["GET /panic"].Errors)
}

func BenchmarkMonitorRecord(b *testing.B) {
	m := NewMonitor()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Record("GET /bench", time.Microsecond, false)
	}
}
