// Package observability records per-route request counts, errors and latency.
package observability

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/searchktools/reactor-http/core/http"
)

// bucketBounds are the upper bounds of the latency histogram; the last bucket
// holds everything slower.
var bucketBounds = [...]time.Duration{
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
	10 * time.Second,
}

// routeMetrics holds the counters of one route
type routeMetrics struct {
	count         atomic.Uint64
	errors        atomic.Uint64
	totalDuration atomic.Uint64
	minDuration   atomic.Uint64
	maxDuration   atomic.Uint64
	buckets       [len(bucketBounds) + 1]atomic.Uint64
}

// RouteStats is a point-in-time copy of one route's counters
type RouteStats struct {
	Route   string        `json:"route"`
	Count   uint64        `json:"count"`
	Errors  uint64        `json:"errors"`
	Avg     time.Duration `json:"avg_ns"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
	Buckets []uint64      `json:"buckets"`
}

// Monitor aggregates handler timings. It is safe for concurrent use.
type Monitor struct {
	enabled atomic.Bool
	routes  sync.Map // route -> *routeMetrics
	total   atomic.Uint64
}

// NewMonitor creates an enabled monitor
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.enabled.Store(true)
	return m
}

// SetEnabled turns recording on or off.
func (m *Monitor) SetEnabled(on bool) {
	m.enabled.Store(on)
}

// Record adds one observation for route. A 5xx outcome counts as an error.
func (m *Monitor) Record(route string, d time.Duration, isError bool) {
	if !m.enabled.Load() {
		return
	}

	val, _ := m.routes.LoadOrStore(route, &routeMetrics{})
	rm := val.(*routeMetrics)

	rm.count.Add(1)
	if isError {
		rm.errors.Add(1)
	}

	ns := uint64(d.Nanoseconds())
	rm.totalDuration.Add(ns)
	updateMin(&rm.minDuration, ns)
	updateMax(&rm.maxDuration, ns)
	rm.buckets[bucketOf(d)].Add(1)

	m.total.Add(1)
}

// Wrap times next under route. A panic is counted as an error and re-raised.
func (m *Monitor) Wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(req *http.Request) (res *http.Response) {
		start := time.Now()
		defer func() {
			v := recover()
			m.Record(route, time.Since(start), v != nil || res == nil || res.Code >= 500)
			if v != nil {
				panic(v)
			}
		}()
		return next(req)
	}
}

// Total returns the number of recorded requests across all routes.
func (m *Monitor) Total() uint64 {
	return m.total.Load()
}

// Snapshot returns the stats of every route, sorted by route.
func (m *Monitor) Snapshot() []RouteStats {
	out := make([]RouteStats, 0)
	m.routes.Range(func(key, value any) bool {
		rm := value.(*routeMetrics)
		s := RouteStats{
			Route:   key.(string),
			Count:   rm.count.Load(),
			Errors:  rm.errors.Load(),
			Min:     time.Duration(rm.minDuration.Load()),
			Max:     time.Duration(rm.maxDuration.Load()),
			Buckets: make([]uint64, len(rm.buckets)),
		}
		if s.Count > 0 {
			s.Avg = time.Duration(rm.totalDuration.Load() / s.Count)
		}
		for i := range rm.buckets {
			s.Buckets[i] = rm.buckets[i].Load()
		}
		out = append(out, s)
		return true
	})

	slices.SortFunc(out, func(a, b RouteStats) int {
		switch {
		case a.Route < b.Route:
			return -1
		case a.Route > b.Route:
			return 1
		}
		return 0
	})
	return out
}

func bucketOf(d time.Duration) int {
	for i, bound := range bucketBounds {
		if d < bound {
			return i
		}
	}
	return len(bucketBounds)
}

func updateMin(v *atomic.Uint64, d uint64) {
	for {
		cur := v.Load()
		if cur != 0 && d >= cur {
			return
		}
		if v.CompareAndSwap(cur, d) {
			return
		}
	}
}

func updateMax(v *atomic.Uint64, d uint64) {
	for {
		cur := v.Load()
		if d <= cur {
			return
		}
		if v.CompareAndSwap(cur, d) {
			return
		}
	}
}
