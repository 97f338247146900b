package workload_test

import (
	"context"
	"sync"
	"time"

	"github.com/qlibin/event-attendees/eventrepo"
)

type writeCall struct {
	ID        eventrepo.EventID
	StartTime eventrepo.StartTime
	Attendees eventrepo.AttendeeSet
}

type readCall struct {
	From      eventrepo.StartTime
	Until     eventrepo.StartTime
	Attendees eventrepo.AttendeeSet
}

// repositorySpy records every call. It can fail calls, slow them down and detect two writers
// working on the same event at the same time. The first panicWrites writes panic.
type repositorySpy struct {
	mu           sync.Mutex
	writes       []writeCall
	reads        []readCall
	err          error
	delay        time.Duration
	inFlight     map[eventrepo.EventID]int
	overlaps     int
	onCall       func(writes int, reads int)
	ctxCancelled bool
	panicWrites  int
	panicked     int
}

func newRepositorySpy() *repositorySpy {
	return &repositorySpy{inFlight: make(map[eventrepo.EventID]int)}
}

func (r *repositorySpy) CreateOrUpdate(
	ctx context.Context,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) error {

	r.mu.Lock()
	if r.panicked < r.panicWrites {
		r.panicked++
		r.mu.Unlock()
		panic("connection reset by peer")
	}

	r.inFlight[id]++
	if r.inFlight[id] > 1 {
		r.overlaps++
	}
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.inFlight[id]--
	r.writes = append(r.writes, writeCall{ID: id, StartTime: startTime, Attendees: attendees})

	if ctx.Err() != nil {
		r.ctxCancelled = true
	}

	if r.onCall != nil {
		r.onCall(len(r.writes), len(r.reads))
	}

	return r.err
}

func (r *repositorySpy) FindEvents(
	ctx context.Context,
	from eventrepo.StartTime,
	until eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) ([]eventrepo.Event, error) {

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads = append(r.reads, readCall{From: from, Until: until, Attendees: attendees})

	if ctx.Err() != nil {
		r.ctxCancelled = true
	}

	if r.onCall != nil {
		r.onCall(len(r.writes), len(r.reads))
	}

	return nil, r.err
}

func (r *repositorySpy) writeCalls() []writeCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]writeCall(nil), r.writes...)
}

func (r *repositorySpy) readCalls() []readCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]readCall(nil), r.reads...)
}

// lowestRandomSource always draws the lower bound.
type lowestRandomSource struct{}

func (lowestRandomSource) Int64Range(min, _ int64) int64 {
	return min
}

// highestRandomSource always draws the upper bound.
type highestRandomSource struct{}

func (highestRandomSource) Int64Range(_, max int64) int64 {
	return max
}
