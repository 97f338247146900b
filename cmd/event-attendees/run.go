package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/qlibin/event-attendees/config"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/ratecounter"
	"github.com/qlibin/event-attendees/workload"
)

const (
	shutdownTimeout       = 10 * time.Second
	logMsgWaitingForStart = "start-processor is off, tasks wait for a start that this process never issues"
)

func runLoad(ctx context.Context, s settings, stdout io.Writer, stderr io.Writer) error {
	logger := newLogger(stderr, s.LogLevel)

	tel, err := startTelemetry(s.MetricsListen, logger)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	taskCount := s.Workload.WriterCount + s.Workload.ReaderCount

	conn, err := config.Open(ctx, s.Driver, s.DSN, config.DefaultPoolSettings(taskCount))
	if err != nil {
		return err
	}

	defer func() {
		_ = conn.Close()
	}()

	if err := prepareSchema(ctx, conn, s.Clean, logger); err != nil {
		return err
	}

	repo, err := conn.NewRepository(repositoryOptions(s, logger, tel)...)
	if err != nil {
		return err
	}

	harness, err := workload.NewHarness(repo, s.Workload, harnessOptions(s, logger, tel)...)
	if err != nil {
		return err
	}

	if !s.Workload.StartAutomatically {
		logger.Warn(logMsgWaitingForStart)
	}

	runCtx := ctx
	if s.RunFor > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.RunFor)
		defer cancel()
	}

	if err := harness.Run(runCtx); err != nil {
		return err
	}

	if !s.SummaryJSON {
		return nil
	}

	summary, err := harness.Summary()
	if err != nil {
		return err
	}

	return workload.WriteSummaryJSON(stdout, summary)
}

func repositoryOptions(s settings, logger *slog.Logger, tel *telemetry) []sqlengine.Option {
	options := []sqlengine.Option{
		sqlengine.WithAttendeeStorage(s.AttendeeStorage),
		sqlengine.WithLogger(logger),
	}

	if s.TransactionalWrites {
		options = append(options, sqlengine.WithTransactionalWrites())
	}

	if s.ExistsCacheSize == 0 {
		options = append(options, sqlengine.WithoutExistenceCache())
	} else {
		options = append(options, sqlengine.WithExistenceCache(s.ExistsCacheSize, s.ExistsCacheTTL))
	}

	if collector := tel.Collector(); collector != nil {
		options = append(options, sqlengine.WithMetrics(collector))
	}

	return options
}

func harnessOptions(s settings, logger *slog.Logger, tel *telemetry) []workload.Option {
	sinks := []ratecounter.Sink{ratecounter.NewLogSink(logger)}
	if collector := tel.Collector(); collector != nil {
		sinks = append(sinks, ratecounter.NewMetricsSink(collector))
	}

	options := []workload.Option{
		workload.WithLogger(logger),
		workload.WithSinks(sinks...),
		workload.WithStripeHash(s.StripeHash),
	}

	if s.Seed != 0 {
		options = append(options, workload.WithRandomSource(workload.NewSeededRandomSource(s.Seed)))
	}

	return options
}
