package striping

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrInvalidStripeCount = errors.New("stripe count must be positive")
	ErrNilHashFunc        = errors.New("hash func must not be nil")
)

// Registry is a fixed-size array of mutexes addressed by key.
type Registry struct {
	stripes []sync.Mutex
	hash    HashFunc
}

// Option defines a functional option for configuring a Registry.
type Option func(*Registry) error

// WithHashFunc replaces the default ModuloHash.
func WithHashFunc(hash HashFunc) Option {
	return func(r *Registry) error {
		if hash == nil {
			return ErrNilHashFunc
		}

		r.hash = hash

		return nil
	}
}

// NewRegistry creates a Registry with stripeCount locks.
//
// Keep stripeCount at two or more times the number of concurrent writers to keep collisions rare.
func NewRegistry(stripeCount int, options ...Option) (*Registry, error) {
	if stripeCount < 1 {
		return nil, ErrInvalidStripeCount
	}

	r := &Registry{
		stripes: make([]sync.Mutex, stripeCount),
		hash:    ModuloHash,
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// StripeCount returns the number of physical locks.
func (r *Registry) StripeCount() int {
	return len(r.stripes)
}

// StripeFor returns the index of the stripe the key maps to.
func (r *Registry) StripeFor(key int64) int {
	return int(r.hash(key) % uint64(len(r.stripes)))
}

// TryAcquire attempts to lock the stripe of key without blocking.
// It returns false if the stripe is held by someone else.
func (r *Registry) TryAcquire(key int64) (*Ticket, bool) {
	stripe := r.StripeFor(key)

	if !r.stripes[stripe].TryLock() {
		return nil, false
	}

	return &Ticket{registry: r, stripe: stripe}, true
}

// WithTryLock runs fn while holding the stripe of key and reports whether fn ran.
// The stripe is released on every exit path of fn, panics included.
func (r *Registry) WithTryLock(key int64, fn func()) bool {
	ticket, ok := r.TryAcquire(key)
	if !ok {
		return false
	}
	defer ticket.Release()

	fn()

	return true
}

/***** Ticket *****/

// Ticket is the proof of a successful TryAcquire. It must be released exactly once;
// further Release calls are no-ops.
type Ticket struct {
	registry *Registry
	stripe   int
	released atomic.Bool
}

// Stripe returns the index of the held stripe.
func (t *Ticket) Stripe() int {
	return t.stripe
}

// Release returns the stripe to the registry.
func (t *Ticket) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}

	t.registry.stripes[t.stripe].Unlock()
}
