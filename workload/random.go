package workload

import (
	"math/rand/v2"
	"sync"

	"github.com/qlibin/event-attendees/eventrepo"
)

// RandomSource draws uniformly distributed integers. Implementations must be safe for concurrent use.
type RandomSource interface {
	// Int64Range returns a value in [min, max], both inclusive. min <= max.
	Int64Range(min, max int64) int64
}

// globalRandomSource uses the goroutine safe top-level functions of math/rand/v2.
type globalRandomSource struct{}

func (globalRandomSource) Int64Range(min, max int64) int64 {
	return min + rand.Int64N(max-min+1) //nolint:gosec
}

// DefaultRandomSource returns the RandomSource used when none is configured.
func DefaultRandomSource() RandomSource {
	return globalRandomSource{}
}

// SeededRandomSource is a reproducible RandomSource.
type SeededRandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandomSource creates a RandomSource whose sequence is fully determined by seed.
func NewSeededRandomSource(seed uint64) *SeededRandomSource {
	return &SeededRandomSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec
}

func (s *SeededRandomSource) Int64Range(min, max int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return min + s.rng.Int64N(max-min+1)
}

// randomAttendees draws the set size from [0, maxEventAttendees] and then that many ids from
// [1, maxAttendeeID]. Duplicates collapse, so the set may be smaller than the drawn size.
func randomAttendees(rng RandomSource, maxEventAttendees int64, maxAttendeeID int64) eventrepo.AttendeeSet {
	size := rng.Int64Range(0, maxEventAttendees)
	if size == 0 {
		return eventrepo.NewAttendeeSet()
	}

	ids := make([]eventrepo.AttendeeID, size)
	for i := range ids {
		ids[i] = rng.Int64Range(1, maxAttendeeID)
	}

	return eventrepo.NewAttendeeSet(ids...)
}
