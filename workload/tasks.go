package workload

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/qlibin/event-attendees/striping"
)

// runWriter loops until ctx is cancelled. A busy stripe is skipped without counting.
func (h *Harness) runWriter(ctx context.Context, registry *striping.Registry, ready *sync.WaitGroup) {
	if !h.awaitStart(ctx, ready) {
		return
	}

	for ctx.Err() == nil {
		id := h.rng.Int64Range(1, h.cfg.MaxEventCount)

		if !h.writeLocked(ctx, registry, id) {
			h.lockBusy.Add(1)
			runtime.Gosched()
		}
	}
}

// writeLocked writes id while holding its stripe and reports false if the stripe was busy.
// A panicking store call is counted as a failed write; the stripe is released while unwinding.
func (h *Harness) writeLocked(ctx context.Context, registry *striping.Registry, id int64) (acquired bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			acquired = true
			h.counter.IncrementErrors()
			h.logError(
				logMsgWriteFailed, fmt.Errorf("%w: %v", ErrWritePanicked, recovered),
				logAttrOperation, operationWrite,
				logAttrEventID, id,
			)
		}
	}()

	return registry.WithTryLock(id, func() {
		h.write(ctx, id)
	})
}

func (h *Harness) write(ctx context.Context, id int64) {
	startTime := h.rng.Int64Range(1, h.cfg.MaxTime)
	attendees := randomAttendees(h.rng, h.cfg.MaxEventAttendees, h.cfg.MaxAttendeeID)

	opCtx, cancel := h.operationContext(ctx)
	defer cancel()

	if err := h.repo.CreateOrUpdate(opCtx, id, startTime, attendees); err != nil {
		h.counter.IncrementErrors()
		h.logError(logMsgWriteFailed, err, logAttrOperation, operationWrite, logAttrEventID, id)

		return
	}

	h.counter.IncrementWrites()
}

// runReader loops until ctx is cancelled. An empty result still counts as a read.
func (h *Harness) runReader(ctx context.Context, ready *sync.WaitGroup) {
	if !h.awaitStart(ctx, ready) {
		return
	}

	for ctx.Err() == nil {
		h.read(ctx)
	}
}

func (h *Harness) read(ctx context.Context) {
	from := h.rng.Int64Range(1, h.cfg.MaxTime-1)
	until := h.rng.Int64Range(from+1, h.cfg.MaxTime)
	attendees := randomAttendees(h.rng, h.cfg.MaxEventAttendees, h.cfg.MaxAttendeeID)

	opCtx, cancel := h.operationContext(ctx)
	defer cancel()

	if _, err := h.repo.FindEvents(opCtx, from, until, attendees); err != nil {
		h.counter.IncrementErrors()
		h.logError(
			logMsgReadFailed, err,
			logAttrOperation, operationRead,
			logAttrFrom, from,
			logAttrUntil, until,
			logAttrAttendees, attendees.String(),
		)

		return
	}

	h.counter.IncrementReads()
}
