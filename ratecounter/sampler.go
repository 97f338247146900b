package ratecounter

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidInterval = errors.New("sample interval must be positive")
	ErrNilCounter      = errors.New("counter must not be nil")
)

// Sample is the throughput observed between two consecutive sampling points.
type Sample struct {
	At              time.Time
	Interval        time.Duration
	Totals          Totals
	WritesPerSecond float64
	ReadsPerSecond  float64
	ErrorsPerSecond float64
}

// Sink receives every Sample taken by a running Sampler.
type Sink interface {
	Report(ctx context.Context, sample Sample)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, sample Sample)

// Report calls f(ctx, sample).
func (f SinkFunc) Report(ctx context.Context, sample Sample) {
	f(ctx, sample)
}

// Sampler converts the cumulative values of a Counter into rates at a fixed interval.
type Sampler struct {
	counter  *Counter
	interval time.Duration
	sinks    []Sink
	now      func() time.Time

	mu       sync.Mutex
	baseline Totals
	lastAt   time.Time
}

// SamplerOption defines a functional option for configuring a Sampler.
type SamplerOption func(*Sampler)

// WithSinks appends sinks that receive each sample.
func WithSinks(sinks ...Sink) SamplerOption {
	return func(s *Sampler) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) {
		s.now = now
	}
}

// NewSampler creates a Sampler whose baseline is the current state of counter.
func NewSampler(counter *Counter, interval time.Duration, options ...SamplerOption) (*Sampler, error) {
	if counter == nil {
		return nil, ErrNilCounter
	}

	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	s := &Sampler{
		counter:  counter,
		interval: interval,
		now:      time.Now,
	}

	for _, option := range options {
		option(s)
	}

	s.baseline = counter.Totals()
	s.lastAt = s.now()

	return s, nil
}

// Interval returns the configured sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Sample computes the rates since the previous sample (or since creation) and moves the baseline to now.
func (s *Sampler) Sample(now time.Time) Sample {
	s.mu.Lock()
	current := s.counter.Totals()
	elapsed := now.Sub(s.lastAt)
	delta := current.sub(s.baseline)
	s.baseline = current
	s.lastAt = now
	s.mu.Unlock()

	sample := Sample{
		At:       now,
		Interval: elapsed,
		Totals:   current,
	}

	if elapsed > 0 {
		seconds := elapsed.Seconds()
		sample.WritesPerSecond = float64(delta.Writes) / seconds
		sample.ReadsPerSecond = float64(delta.Reads) / seconds
		sample.ErrorsPerSecond = float64(delta.Errors) / seconds
	}

	return sample
}

// Run samples every interval and reports to all sinks until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			sample := s.Sample(s.now())
			for _, sink := range s.sinks {
				sink.Report(ctx, sample)
			}
		}
	}
}
