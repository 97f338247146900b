package workload_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/ratecounter"
	"github.com/qlibin/event-attendees/striping"
	"github.com/qlibin/event-attendees/testutil/helper"
	"github.com/qlibin/event-attendees/workload"
)

func smallConfig(writers int, readers int) workload.Config {
	return workload.Config{
		WriterCount:        writers,
		ReaderCount:        readers,
		MaxEventCount:      10,
		MaxTime:            1000,
		MaxAttendeeID:      5,
		MaxEventAttendees:  3,
		ReportInterval:     time.Hour,
		StartAutomatically: true,
	}
}

// runUntil runs the harness until the spy has seen the given number of calls.
func runUntil(t *testing.T, h *workload.Harness, spy *repositorySpy, calls int) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	spy.onCall = func(writes int, reads int) {
		if writes+reads >= calls {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("harness did not stop")
	}
}

func Test_NewHarness_When_RepositoryIsNil(t *testing.T) {
	// act
	_, err := workload.NewHarness(nil, smallConfig(1, 1))

	// assert
	assert.ErrorIs(t, err, workload.ErrNilRepository)
}

func Test_Run_When_ConfigurationIsInvalid(t *testing.T) {
	// setup
	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, smallConfig(0, 0))
	require.NoError(t, err)

	// act
	err = h.Run(context.Background())

	// assert
	assert.ErrorIs(t, err, workload.ErrInvalidConfiguration)
	assert.Equal(t, workload.StateIdle, h.State())
	assert.Empty(t, spy.writeCalls())
	assert.Empty(t, spy.readCalls())
}

func Test_Writer_With_LowestDraws(t *testing.T) {
	// setup
	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, smallConfig(1, 0), workload.WithRandomSource(lowestRandomSource{}))
	require.NoError(t, err)

	// act
	runUntil(t, h, spy, 3)

	// assert
	writes := spy.writeCalls()
	require.GreaterOrEqual(t, len(writes), 3)
	assert.Equal(t, int64(1), writes[0].ID)
	assert.Equal(t, int64(1), writes[0].StartTime)
	assert.True(t, writes[0].Attendees.IsEmpty())
	assert.Equal(t, int64(len(writes)), h.Counter().Totals().Writes)
}

func Test_Writer_With_HighestDraws(t *testing.T) {
	// setup
	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, smallConfig(1, 0), workload.WithRandomSource(highestRandomSource{}))
	require.NoError(t, err)

	// act
	runUntil(t, h, spy, 1)

	// assert
	writes := spy.writeCalls()
	require.NotEmpty(t, writes)
	assert.Equal(t, int64(10), writes[0].ID)
	assert.Equal(t, int64(1000), writes[0].StartTime)
	assert.True(t, writes[0].Attendees.Equal(helper.GivenAttendees(5)), "three draws of the same id collapse")
}

func Test_Reader_Draws_A_NonEmptyWindow(t *testing.T) {
	testCases := []struct {
		name      string
		rng       workload.RandomSource
		from      int64
		until     int64
		attendees eventrepo.AttendeeSet
	}{
		{"lowest", lowestRandomSource{}, 1, 2, eventrepo.NewAttendeeSet()},
		{"highest", highestRandomSource{}, 999, 1000, helper.GivenAttendees(5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			spy := newRepositorySpy()

			h, err := workload.NewHarness(spy, smallConfig(0, 1), workload.WithRandomSource(tc.rng))
			require.NoError(t, err)

			// act
			runUntil(t, h, spy, 2)

			// assert
			reads := spy.readCalls()
			require.NotEmpty(t, reads)
			assert.Equal(t, tc.from, reads[0].From)
			assert.Equal(t, tc.until, reads[0].Until)
			assert.True(t, reads[0].Attendees.Equal(tc.attendees))
			assert.Equal(t, int64(len(reads)), h.Counter().Totals().Reads, "empty results count as reads")
		})
	}
}

func Test_Tasks_Continue_After_StoreErrors(t *testing.T) {
	// setup
	spy := newRepositorySpy()
	spy.err = eventrepo.StoreError(eventrepo.ErrInsertingEventFailed, errors.New("connection reset"))
	logSpy := helper.NewLogHandlerSpy(false)

	h, err := workload.NewHarness(spy, smallConfig(1, 1), workload.WithLogger(slog.New(logSpy)))
	require.NoError(t, err)

	// act
	runUntil(t, h, spy, 10)

	// assert
	totals := h.Counter().Totals()
	assert.Zero(t, totals.Writes)
	assert.Zero(t, totals.Reads)
	assert.GreaterOrEqual(t, totals.Errors, int64(10))
	assert.True(t, logSpy.HasLogWithAttr("write failed", "event_id"))
	assert.True(t, logSpy.HasLogWithAttr("read failed", "from"))
	assert.Equal(t, workload.StateStopped, h.State())
}

func Test_Writers_Never_Write_TheSameEvent_Concurrently(t *testing.T) {
	for _, hash := range []striping.HashFunc{striping.ModuloHash, striping.Murmur3Hash} {
		// setup
		spy := newRepositorySpy()
		spy.delay = time.Millisecond

		cfg := smallConfig(8, 0)
		cfg.MaxEventCount = 4

		h, err := workload.NewHarness(spy, cfg, workload.WithStripeHash(hash))
		require.NoError(t, err)

		// act
		runUntil(t, h, spy, 200)

		// assert
		summary, err := h.Summary()
		require.NoError(t, err)

		spy.mu.Lock()
		assert.Zero(t, spy.overlaps)
		spy.mu.Unlock()

		assert.Equal(t, 16, summary.Stripes)
		assert.Positive(t, summary.LockBusy, "eight writers on four ids must collide")
		assert.Equal(t, int64(len(spy.writeCalls())), summary.Totals.Writes, "busy iterations are not writes")
	}
}

func Test_Writer_When_StoreCallPanics_Should_ReleaseStripe(t *testing.T) {
	// setup
	spy := newRepositorySpy()
	spy.panicWrites = 1

	cfg := smallConfig(1, 0)
	cfg.MaxEventCount = 1

	logSpy := helper.NewLogHandlerSpy(false)

	h, err := workload.NewHarness(spy, cfg, workload.WithLogger(logSpy.Logger()))
	require.NoError(t, err)

	// act
	runUntil(t, h, spy, 5)

	// assert
	summary, err := h.Summary()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(spy.writeCalls()), 5, "later writes to the same event still go through")
	assert.Equal(t, int64(1), summary.Totals.Errors)
	assert.Equal(t, int64(len(spy.writeCalls())), summary.Totals.Writes)
	assert.Zero(t, summary.LockBusy)
	assert.True(t, logSpy.HasLogWithAttr("write failed", "event_id"))
}

func Test_InFlight_StoreCalls_Are_Not_Cancelled(t *testing.T) {
	// setup
	spy := newRepositorySpy()
	spy.delay = 20 * time.Millisecond

	h, err := workload.NewHarness(spy, smallConfig(2, 2))
	require.NoError(t, err)

	// act
	runUntil(t, h, spy, 1)

	// assert
	spy.mu.Lock()
	defer spy.mu.Unlock()

	assert.False(t, spy.ctxCancelled)
}

func Test_Run_Waits_For_Start_When_NotStartingAutomatically(t *testing.T) {
	// setup
	spy := newRepositorySpy()
	cfg := smallConfig(1, 1)
	cfg.StartAutomatically = false

	h, err := workload.NewHarness(spy, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// act
	go func() { done <- h.Run(ctx) }()

	// assert
	assert.Eventually(t, func() bool { return h.State() == workload.StateStarting }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, spy.writeCalls(), "tasks must wait at the barrier")
	assert.Empty(t, spy.readCalls(), "tasks must wait at the barrier")

	h.Start()

	assert.Eventually(t, func() bool { return h.State() == workload.StateRunning }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(spy.writeCalls()) > 0 && len(spy.readCalls()) > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, workload.StateStopped, h.State())
}

func Test_Run_When_CancelledBeforeStart(t *testing.T) {
	// setup
	cfg := smallConfig(2, 2)
	cfg.StartAutomatically = false

	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	err = h.Run(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, workload.StateStopped, h.State())
	assert.Empty(t, spy.writeCalls())
}

func Test_Run_Twice(t *testing.T) {
	// setup
	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, smallConfig(1, 0))
	require.NoError(t, err)

	runUntil(t, h, spy, 1)

	// act
	err = h.Run(context.Background())

	// assert
	assert.ErrorIs(t, err, workload.ErrAlreadyStarted)
}

func Test_Summary(t *testing.T) {
	// setup
	spy := newRepositorySpy()

	h, err := workload.NewHarness(spy, smallConfig(1, 1))
	require.NoError(t, err)

	_, notStoppedErr := h.Summary()

	// act
	runUntil(t, h, spy, 20)
	summary, err := h.Summary()

	// assert
	assert.ErrorIs(t, notStoppedErr, workload.ErrNotStopped)
	require.NoError(t, err)

	runID, err := uuid.Parse(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), runID.Version())

	assert.Equal(t, h.Counter().Totals(), summary.Totals)
	assert.Equal(t, 1, summary.Writers)
	assert.Equal(t, 1, summary.Readers)
	assert.GreaterOrEqual(t, summary.WritesPerSecond, 0.0)
	assert.Nil(t, summary.StoredEvents, "the spy does not count events")
	assert.False(t, summary.StoppedAt.Before(summary.StartedAt))

	var buf bytes.Buffer
	require.NoError(t, workload.WriteSummaryJSON(&buf, summary))

	var decoded map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, summary.RunID, decoded["run_id"])
	assert.Contains(t, decoded, "writes_per_second")
	assert.NotContains(t, decoded, "stored_events")
}

func Test_Run_Reports_Samples_To_Sinks(t *testing.T) {
	// setup
	spy := newRepositorySpy()
	spy.delay = time.Millisecond

	cfg := smallConfig(1, 1)
	cfg.ReportInterval = 10 * time.Millisecond

	samples := make(chan ratecounter.Sample, 64)
	sink := ratecounter.SinkFunc(func(_ context.Context, sample ratecounter.Sample) {
		select {
		case samples <- sample:
		default:
		}
	})

	h, err := workload.NewHarness(spy, cfg, workload.WithSinks(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// act
	require.NoError(t, h.Run(ctx))

	// assert
	require.NotEmpty(t, samples)

	sample := <-samples
	assert.GreaterOrEqual(t, sample.WritesPerSecond, 0.0)
	assert.GreaterOrEqual(t, sample.ReadsPerSecond, 0.0)
}

func Test_Scenario_Against_SQLite(t *testing.T) {
	// setup
	repo, _ := helper.NewSQLiteRepository(t)

	cfg := workload.Config{
		WriterCount:        4,
		ReaderCount:        4,
		MaxEventCount:      10,
		MaxTime:            1000,
		MaxAttendeeID:      5,
		MaxEventAttendees:  3,
		ReportInterval:     50 * time.Millisecond,
		StartAutomatically: true,
	}

	var rates []ratecounter.Sample
	sink := ratecounter.SinkFunc(func(_ context.Context, sample ratecounter.Sample) {
		rates = append(rates, sample)
	})

	h, err := workload.NewHarness(repo, cfg, workload.WithSinks(sink), workload.WithRandomSource(workload.NewSeededRandomSource(7)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	// act
	require.NoError(t, h.Run(ctx))

	// assert
	summary, err := h.Summary()
	require.NoError(t, err)

	assert.Positive(t, summary.Totals.Writes)
	assert.Positive(t, summary.Totals.Reads)
	assert.Zero(t, summary.Totals.Errors)

	require.NotNil(t, summary.StoredEvents)
	assert.LessOrEqual(t, *summary.StoredEvents, 10)
	assert.Positive(t, *summary.StoredEvents)

	for _, sample := range rates {
		assert.GreaterOrEqual(t, sample.WritesPerSecond, 0.0)
		assert.GreaterOrEqual(t, sample.ReadsPerSecond, 0.0)
	}

	events, err := repo.FindEvents(context.Background(), 1, 1000, eventrepo.NewAttendeeSet())
	require.NoError(t, err)

	for _, event := range events {
		assert.GreaterOrEqual(t, event.ID, int64(1))
		assert.LessOrEqual(t, event.ID, int64(10))
		assert.LessOrEqual(t, event.Attendees.Len(), 3)
	}
}
