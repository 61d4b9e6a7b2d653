package core

import "github.com/searchktools/reactor-http/core/observability"

// Stats is a snapshot of the engine's connection bookkeeping.
type Stats struct {
	Connections int    `json:"connections"`
	PoolGets    uint64 `json:"pool_gets"`
	PoolPuts    uint64 `json:"pool_puts"`

	// Set only when a monitor is attached.
	Requests uint64                     `json:"requests,omitempty"`
	Routes   []observability.RouteStats `json:"routes,omitempty"`
}

// Stats returns the live connection count, connection pool counters and the
// per-route timings of the attached monitor.
func (e *Engine) Stats() Stats {
	e.connMu.RLock()
	live := len(e.connections)
	e.connMu.RUnlock()

	gets, puts := e.connectionPool.Stats()
	s := Stats{
		Connections: live,
		PoolGets:    gets,
		PoolPuts:    puts,
	}
	if e.monitor != nil {
		s.Requests = e.monitor.Total()
		s.Routes = e.monitor.Snapshot()
	}
	return s
}
