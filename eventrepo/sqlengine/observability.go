package sqlengine

import (
	"math"
	"time"
)

const (
	metricOperationDuration = "eventrepo_operation_duration_seconds"
	metricEventsFound       = "eventrepo_events_found"
	metricEventsCreated     = "eventrepo_events_created_total"
	metricCacheHits         = "eventrepo_existence_cache_hits_total"
	metricCacheMisses       = "eventrepo_existence_cache_misses_total"
	metricDatabaseErrors    = "eventrepo_database_errors_total"
	labelOperation          = "operation"
	labelStatus             = "status"
	labelErrorType          = "error_type"
	statusSuccess           = "success"
	statusError             = "error"
	operationExists         = "exists"
	operationCreateOrUpdate = "create_or_update"
	operationFindEvents     = "find_events"
	operationGetEvent       = "get_event"
	operationCountEvents    = "count_events"
	errorTypeBuildQuery     = "build_query"
	errorTypeQuery          = "query"
	errorTypeExec           = "exec"
	errorTypeScan           = "scan"
	errorTypeTransaction    = "transaction"
)

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (r Repository) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if r.logger != nil {
		r.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs per-operation results at debug level if the logger is configured.
func (r Repository) logOperation(action string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (r Repository) logError(message string, err error, args ...any) {
	if r.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		r.logger.Error(message, allArgs...)
	}
}

// logWarn logs non-critical issues at warn level if the logger is configured.
func (r Repository) logWarn(message string, err error) {
	if r.logger != nil {
		r.logger.Warn(message, logAttrError, err.Error())
	}
}

func (r Repository) recordDuration(operation string, status string, duration time.Duration) {
	if r.metricsCollector != nil {
		r.metricsCollector.RecordDuration(
			metricOperationDuration,
			duration,
			map[string]string{labelOperation: operation, labelStatus: status},
		)
	}
}

func (r Repository) recordError(operation string, errorType string) {
	if r.metricsCollector != nil {
		r.metricsCollector.IncrementCounter(
			metricDatabaseErrors,
			map[string]string{labelOperation: operation, labelStatus: statusError, labelErrorType: errorType},
		)
	}
}

func (r Repository) incrementCounter(metric string) {
	if r.metricsCollector != nil {
		r.metricsCollector.IncrementCounter(metric, nil)
	}
}

func (r Repository) recordValue(metric string, value float64, operation string) {
	if r.metricsCollector != nil {
		r.metricsCollector.RecordValue(metric, value, map[string]string{labelOperation: operation})
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func statusOf(err error) string {
	if err != nil {
		return statusError
	}

	return statusSuccess
}
