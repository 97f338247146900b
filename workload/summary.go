package workload

import (
	"context"
	"io"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/qlibin/event-attendees/ratecounter"
)

// Summary describes a finished run.
type Summary struct {
	RunID           string             `json:"run_id"`
	StartedAt       time.Time          `json:"started_at"`
	StoppedAt       time.Time          `json:"stopped_at"`
	DurationSeconds float64            `json:"duration_seconds"`
	Writers         int                `json:"writers"`
	Readers         int                `json:"readers"`
	Stripes         int                `json:"stripes"`
	Totals          ratecounter.Totals `json:"totals"`
	LockBusy        int64              `json:"lock_busy"`
	WritesPerSecond float64            `json:"writes_per_second"`
	ReadsPerSecond  float64            `json:"reads_per_second"`
	StoredEvents    *int               `json:"stored_events,omitempty"`
}

// WriteSummaryJSON writes s as indented JSON.
func WriteSummaryJSON(w io.Writer, s Summary) error {
	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(s)
}

func (h *Harness) buildSummary(ctx context.Context, runID string, startedAt time.Time, stoppedAt time.Time) Summary {
	totals := h.counter.Totals()
	duration := stoppedAt.Sub(startedAt)

	summary := Summary{
		RunID:           runID,
		StartedAt:       startedAt,
		StoppedAt:       stoppedAt,
		DurationSeconds: roundTo3(duration.Seconds()),
		Writers:         h.cfg.WriterCount,
		Readers:         h.cfg.ReaderCount,
		Stripes:         h.cfg.StripeCount(),
		Totals:          totals,
		LockBusy:        h.lockBusy.Load(),
	}

	if seconds := duration.Seconds(); seconds > 0 {
		summary.WritesPerSecond = roundTo3(float64(totals.Writes) / seconds)
		summary.ReadsPerSecond = roundTo3(float64(totals.Reads) / seconds)
	}

	if counter, ok := h.repo.(EventCounter); ok {
		opCtx, cancel := h.operationContext(ctx)
		defer cancel()

		count, err := counter.CountEvents(opCtx)
		if err != nil {
			h.logError(logMsgCountFailed, err)
		} else {
			summary.StoredEvents = &count
		}
	}

	return summary
}

func roundTo3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
