package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/oteladapters"
)

const (
	meterName            = "github.com/qlibin/event-attendees"
	serviceName          = "event-attendees"
	metricsPath          = "/metrics"
	metricsHeaderTimeout = 5 * time.Second
	logMsgMetricsEnabled = "metrics endpoint enabled"
	logMsgMetricsFailed  = "metrics endpoint failed"
	logMsgMetricRejected = "metric instrument rejected"
	logAttrListen        = "listen"
	logAttrMetric        = "metric"
	logAttrError         = "error"
)

// telemetry owns the prometheus endpoint and the meter provider behind the metrics collector.
// Without a listen address it is inert and Collector returns nil.
type telemetry struct {
	collector     eventrepo.MetricsCollector
	meterProvider *sdkmetric.MeterProvider
	server        *http.Server
	listener      net.Listener
}

func startTelemetry(listen string, logger *slog.Logger) (*telemetry, error) {
	if listen == "" {
		return &telemetry{}, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("start prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdkmetric.WithReader(exporter),
	)

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		_ = meterProvider.Shutdown(context.Background())
		return nil, fmt.Errorf("listen on %s: %w", listen, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Handler: mux, ReadHeaderTimeout: metricsHeaderTimeout}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error(logMsgMetricsFailed, logAttrError, serveErr)
		}
	}()

	logger.Info(logMsgMetricsEnabled, logAttrListen, listener.Addr().String())

	collector := oteladapters.NewMetricsCollector(
		meterProvider.Meter(meterName),
		oteladapters.WithErrorHandler(func(metricName string, err error) {
			logger.Warn(logMsgMetricRejected, logAttrMetric, metricName, logAttrError, err)
		}),
	)

	return &telemetry{
		collector:     collector,
		meterProvider: meterProvider,
		server:        server,
		listener:      listener,
	}, nil
}

// Collector returns nil when metrics are disabled.
func (t *telemetry) Collector() eventrepo.MetricsCollector {
	return t.collector
}

// Addr returns the bound address, or "" when metrics are disabled.
func (t *telemetry) Addr() string {
	if t.listener == nil {
		return ""
	}

	return t.listener.Addr().String()
}

func (t *telemetry) Shutdown(ctx context.Context) error {
	if t.server == nil {
		return nil
	}

	return errors.Join(t.server.Shutdown(ctx), t.meterProvider.Shutdown(ctx))
}
