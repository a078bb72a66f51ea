package monitor

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"pharmarag/internal/domain"
)

const recentWindow = 100

// Monitor records operation durations and keeps rolling statistics per
// operation name. Metrics are created lazily on first record and survive
// until an explicit Reset.
type Monitor struct {
	mu            sync.Mutex
	metrics       map[string]*metric
	slowThreshold time.Duration
	startedAt     time.Time
	logger        *slog.Logger
}

type metric struct {
	count  uint64
	total  time.Duration
	min    time.Duration
	max    time.Duration
	recent []time.Duration // bounded FIFO window
}

// New creates a Monitor. Durations above slowThreshold are logged as
// warnings; a non-positive threshold disables the warning.
func New(slowThreshold time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		metrics:       make(map[string]*metric),
		slowThreshold: slowThreshold,
		startedAt:     time.Now(),
		logger:        logger,
	}
}

// Record adds one duration measurement for op. Negative durations are
// clamped to zero rather than rejected.
func (m *Monitor) Record(op string, d time.Duration) {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	mt, ok := m.metrics[op]
	if !ok {
		mt = &metric{min: d, max: d}
		m.metrics[op] = mt
	}
	mt.count++
	mt.total += d
	if d < mt.min {
		mt.min = d
	}
	if d > mt.max {
		mt.max = d
	}
	mt.recent = append(mt.recent, d)
	if len(mt.recent) > recentWindow {
		mt.recent = mt.recent[1:]
	}
	m.mu.Unlock()

	if m.slowThreshold > 0 && d > m.slowThreshold {
		m.logger.Warn("slow operation detected",
			"operation", op,
			"duration_ms", float64(d)/float64(time.Millisecond),
			"threshold_ms", float64(m.slowThreshold)/float64(time.Millisecond))
	}
}

// Track returns a func that records the elapsed time since the call when
// invoked, for use with defer:
//
//	defer m.Track("get_document")()
func (m *Monitor) Track(op string) func() {
	start := time.Now()
	return func() {
		m.Record(op, time.Since(start))
	}
}

// Stats returns the snapshot for one operation, or ok=false if it was never
// recorded.
func (m *Monitor) Stats(op string) (domain.OperationStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.metrics[op]
	if !ok {
		return domain.OperationStats{}, false
	}
	return snapshot(op, mt), true
}

// AllStats returns snapshots for every recorded operation, sorted by name.
func (m *Monitor) AllStats() []domain.OperationStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.OperationStats, 0, len(m.metrics))
	for op, mt := range m.metrics {
		out = append(out, snapshot(op, mt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Uptime returns the time since the monitor was created or last reset.
func (m *Monitor) Uptime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startedAt)
}

// Reset discards all metrics and restarts the uptime clock.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = make(map[string]*metric)
	m.startedAt = time.Now()
}

func snapshot(op string, mt *metric) domain.OperationStats {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

	var recentTotal time.Duration
	for _, d := range mt.recent {
		recentTotal += d
	}
	var recentAvg float64
	if len(mt.recent) > 0 {
		recentAvg = ms(recentTotal) / float64(len(mt.recent))
	}

	return domain.OperationStats{
		Operation:   op,
		Count:       mt.count,
		TotalMillis: ms(mt.total),
		AvgMillis:   ms(mt.total) / float64(mt.count),
		MinMillis:   ms(mt.min),
		MaxMillis:   ms(mt.max),
		RecentAvg:   recentAvg,
		RecentCount: len(mt.recent),
	}
}
