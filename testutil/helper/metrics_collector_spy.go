package helper

import (
	"maps"
	"sync"
	"time"
)

// MetricRecord is one captured call of a MetricsCollector method.
type MetricRecord struct {
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures all MetricsCollector calls for inspection.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []MetricRecord
	counters  []MetricRecord
	values    []MetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (c *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations = append(c.durations, MetricRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (c *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = append(c.counters, MetricRecord{Metric: metric, Value: 1, Labels: maps.Clone(labels)})
}

func (c *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = append(c.values, MetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// HasDurationRecord reports whether a duration for metric was recorded with all of the given labels.
func (c *MetricsCollectorSpy) HasDurationRecord(metric string, labels map[string]string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return hasRecord(c.durations, metric, labels)
}

// CounterTotal sums the increments of metric.
func (c *MetricsCollectorSpy) CounterTotal(metric string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, record := range c.counters {
		if record.Metric == metric {
			total++
		}
	}

	return total
}

// LastValue returns the most recent value recorded for metric.
func (c *MetricsCollectorSpy) LastValue(metric string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.values) - 1; i >= 0; i-- {
		if c.values[i].Metric == metric {
			return c.values[i].Value, true
		}
	}

	return 0, false
}

func hasRecord(records []MetricRecord, metric string, labels map[string]string) bool {
	for _, record := range records {
		if record.Metric != metric {
			continue
		}

		matches := true
		for key, value := range labels {
			if record.Labels[key] != value {
				matches = false
				break
			}
		}

		if matches {
			return true
		}
	}

	return false
}
