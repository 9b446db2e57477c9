package monitoring

import (
	"sort"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

const bucketWidth = time.Minute

// Config holds monitoring configuration
type Config struct {
	// Retention is the longest window GetEventMetrics can answer. It fixes
	// the number of per-minute buckets kept for each event.
	Retention time.Duration
}

// Service counts lifecycle events in process
type Service struct {
	config  Config
	slots   int64
	mu      sync.Mutex
	totals  map[string]int64
	buckets map[string][]bucket
	now     func() time.Time
}

// bucket counts the events of one minute; minute is the Unix minute it holds.
type bucket struct {
	minute int64
	count  int64
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}
	slots := int64((config.Retention + bucketWidth - 1) / bucketWidth)
	return &Service{
		config:  config,
		slots:   slots,
		totals:  map[string]int64{},
		buckets: map[string][]bucket{},
		now:     time.Now,
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := s.now()
	minute := ts.Unix() / int64(bucketWidth/time.Second)

	s.mu.Lock()
	s.totals[eventName]++
	ring, ok := s.buckets[eventName]
	if !ok {
		ring = make([]bucket, s.slots)
		s.buckets[eventName] = ring
	}
	b := &ring[minute%s.slots]
	if b.minute != minute {
		b.minute = minute
		b.count = 0
	}
	b.count++
	s.mu.Unlock()

	nuts.L.Debugf("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
}

// GetEventMetrics returns the lifetime total and the count within the last
// duration for one event type. The window is counted in whole minutes and is
// capped by the retention.
func (s *Service) GetEventMetrics(eventType string, duration time.Duration) map[string]int64 {
	current := s.now().Unix() / int64(bucketWidth/time.Second)
	span := int64((duration + bucketWidth - 1) / bucketWidth)
	if span < 1 {
		span = 1
	}
	if span > s.slots {
		span = s.slots
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var window int64
	for _, b := range s.buckets[eventType] {
		if b.count > 0 && b.minute <= current && b.minute > current-span {
			window += b.count
		}
	}
	return map[string]int64{
		"total":  s.totals[eventType],
		"window": window,
	}
}

// Metrics returns GetEventMetrics for every event seen so far.
func (s *Service) Metrics(duration time.Duration) map[string]map[string]int64 {
	s.mu.Lock()
	names := make([]string, 0, len(s.totals))
	for name := range s.totals {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)

	out := make(map[string]map[string]int64, len(names))
	for _, name := range names {
		out[name] = s.GetEventMetrics(name, duration)
	}
	return out
}

// Snapshot returns lifetime totals per event.
func (s *Service) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out
}
