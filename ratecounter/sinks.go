package ratecounter

import (
	"context"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/qlibin/event-attendees/eventrepo"
)

const (
	logMsgThroughput         = "throughput"
	logAttrWritesPerSecond   = "writes_per_second"
	logAttrReadsPerSecond    = "reads_per_second"
	logAttrErrorsPerSecond   = "errors_per_second"
	logAttrTotalWrites       = "total_writes"
	logAttrTotalReads        = "total_reads"
	logAttrTotalErrors       = "total_errors"
	logAttrIntervalSeconds   = "interval_seconds"
	MetricWritesPerSecond    = "workload_writes_per_second"
	MetricReadsPerSecond     = "workload_reads_per_second"
	MetricErrorsPerSecond    = "workload_errors_per_second"
	MetricTotalWrites        = "workload_writes_total"
	MetricTotalReads         = "workload_reads_total"
	labelWorkloadOperation   = "operation"
	labelValueWriteOperation = "write"
	labelValueReadOperation  = "read"
)

// LogSink writes one info line per sample.
type LogSink struct {
	logger eventrepo.Logger
}

// NewLogSink creates a LogSink. A nil logger makes it silent.
func NewLogSink(logger eventrepo.Logger) LogSink {
	return LogSink{logger: logger}
}

func (ls LogSink) Report(_ context.Context, sample Sample) {
	if ls.logger == nil {
		return
	}

	ls.logger.Info(
		logMsgThroughput,
		logAttrWritesPerSecond, roundRate(sample.WritesPerSecond),
		logAttrReadsPerSecond, roundRate(sample.ReadsPerSecond),
		logAttrErrorsPerSecond, roundRate(sample.ErrorsPerSecond),
		logAttrTotalWrites, humanize.Comma(sample.Totals.Writes),
		logAttrTotalReads, humanize.Comma(sample.Totals.Reads),
		logAttrTotalErrors, humanize.Comma(sample.Totals.Errors),
		logAttrIntervalSeconds, roundRate(sample.Interval.Seconds()),
	)
}

// MetricsSink publishes the rates and totals as gauge values.
type MetricsSink struct {
	collector eventrepo.MetricsCollector
}

// NewMetricsSink creates a MetricsSink. A nil collector makes it a no-op.
func NewMetricsSink(collector eventrepo.MetricsCollector) MetricsSink {
	return MetricsSink{collector: collector}
}

func (ms MetricsSink) Report(_ context.Context, sample Sample) {
	if ms.collector == nil {
		return
	}

	writeLabels := map[string]string{labelWorkloadOperation: labelValueWriteOperation}
	readLabels := map[string]string{labelWorkloadOperation: labelValueReadOperation}

	ms.collector.RecordValue(MetricWritesPerSecond, sample.WritesPerSecond, writeLabels)
	ms.collector.RecordValue(MetricReadsPerSecond, sample.ReadsPerSecond, readLabels)
	ms.collector.RecordValue(MetricErrorsPerSecond, sample.ErrorsPerSecond, nil)
	ms.collector.RecordValue(MetricTotalWrites, float64(sample.Totals.Writes), writeLabels)
	ms.collector.RecordValue(MetricTotalReads, float64(sample.Totals.Reads), readLabels)
}

// roundRate keeps two decimal places.
func roundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}
