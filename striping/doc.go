// Package striping maps a large numeric key space onto a fixed number of
// mutual-exclusion locks ("stripes") and hands them out with non-blocking
// try-acquire semantics.
//
// Two keys that map to different stripes never contend. Two keys that map to
// the same stripe are serialized, and the caller that loses observes "busy"
// immediately instead of waiting:
//
//	registry, _ := striping.NewRegistry(2 * writerCount)
//
//	ticket, ok := registry.TryAcquire(eventID)
//	if !ok {
//		// busy, pick another key
//	}
//	defer ticket.Release()
package striping
