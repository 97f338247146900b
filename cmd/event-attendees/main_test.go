package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlibin/event-attendees/workload"
)

func Test_Submain_When_RunningOnSQLite_Should_PrintSummary(t *testing.T) {
	// setup
	var stdout, stderr bytes.Buffer

	// act
	exitCode := submain(
		context.Background(),
		[]string{
			"--db-driver", "sqlite",
			"--dsn", ":memory:",
			"--writers", "2",
			"--readers", "2",
			"--max-events", "10",
			"--max-time", "1000",
			"--max-attendee-id", "5",
			"--max-event-attendees", "3",
			"--log-rate-every", "100ms",
			"--run-for", "400ms",
			"--log-level", "error",
			"--summary-json",
		},
		&stdout,
		&stderr,
	)

	// assert
	require.Equal(t, 0, exitCode, stderr.String())

	var summary workload.Summary
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(stdout.Bytes(), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Writers)
	assert.Equal(t, 2, summary.Readers)
	assert.Equal(t, 4, summary.Stripes)
	assert.GreaterOrEqual(t, summary.WritesPerSecond, 0.0)
	assert.GreaterOrEqual(t, summary.ReadsPerSecond, 0.0)
	require.NotNil(t, summary.StoredEvents)
	assert.LessOrEqual(t, *summary.StoredEvents, 10)
}

func Test_Submain_When_FlagsAreInvalid_Should_Fail(t *testing.T) {
	// setup
	var stdout, stderr bytes.Buffer

	// act
	exitCode := submain(context.Background(), []string{"--db-driver", "mysql"}, &stdout, &stderr)

	// assert
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "unsupported database driver")
	assert.Empty(t, stdout.String())
}

func Test_Submain_Bootstrap_Should_CreateSchema(t *testing.T) {
	// setup
	var stdout, stderr bytes.Buffer

	// act
	exitCode := submain(
		context.Background(),
		[]string{"bootstrap", "--db-driver", "sqlite", "--dsn", ":memory:", "--clean", "--log-level", "debug"},
		&stdout,
		&stderr,
	)

	// assert
	require.Equal(t, 0, exitCode, stderr.String())
	assert.Contains(t, stderr.String(), "schema dropped")
	assert.Contains(t, stderr.String(), "schema created")
}

func Test_StartTelemetry_When_ListenIsEmpty_Should_BeInert(t *testing.T) {
	// act
	tel, err := startTelemetry("", newLogger(io.Discard, 0))

	// assert
	require.NoError(t, err)
	assert.Nil(t, tel.Collector())
	assert.Empty(t, tel.Addr())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func Test_StartTelemetry_Should_ServePrometheusMetrics(t *testing.T) {
	// setup
	tel, err := startTelemetry("127.0.0.1:0", newLogger(io.Discard, 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	// arrange
	require.NotNil(t, tel.Collector())
	tel.Collector().RecordValue("workload_writes_per_second", 12.5, map[string]string{"operation": "write"})

	// act
	response, err := http.Get("http://" + tel.Addr() + metricsPath)
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)

	// assert
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), "workload_writes_per_second")
}
