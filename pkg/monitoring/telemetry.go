package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var (
	meterProvider        *sdkmetric.MeterProvider
	requestCounter       metric.Int64Counter
	latencyHist          metric.Float64Histogram
	businessEventCounter metric.Int64Counter
	dbLatencyHist        metric.Float64Histogram
	initOnce             sync.Once
	initErr              error
	httpHandler          http.Handler
)

// Config captures the minimal setup parameters for the service.
type Config struct {
	ServiceName   string
	ResourceAttrs map[string]string
	// OTLPEndpoint, when set, also pushes metrics to a collector (e.g. "https://collector:4318")
	OTLPEndpoint string
	// OTLPInsecure allows a plain http:// OTLPEndpoint
	OTLPInsecure bool
	OTLPHeaders  map[string]string
}

const otlpExportInterval = 15 * time.Second

// otlpReader builds the periodic OTLP push reader, or nil when no endpoint is configured.
func otlpReader(ctx context.Context, cfg Config) (sdkmetric.Reader, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, nil
	}

	endpointURL, err := url.Parse(cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid OTLP endpoint URL: %w", err)
	}
	if endpointURL.Host == "" {
		return nil, fmt.Errorf("OTLP endpoint must be an absolute URL: %q", cfg.OTLPEndpoint)
	}
	if endpointURL.Scheme != "https" && !cfg.OTLPInsecure {
		return nil, fmt.Errorf("OTLP endpoint must use HTTPS (got: %s); set OTEL_EXPORTER_OTLP_INSECURE=true to allow http", endpointURL.Scheme)
	}

	// WithEndpoint expects host:port; the scheme is selected by WithInsecure
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpointURL.Host)}
	if endpointURL.Path != "" && endpointURL.Path != "/" {
		opts = append(opts, otlpmetrichttp.WithURLPath(endpointURL.Path))
	}
	if endpointURL.Scheme == "http" {
		slog.Warn("Using insecure HTTP connection for OTLP endpoint", "endpoint", cfg.OTLPEndpoint)
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(otlpExportInterval)), nil
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter, an optional
// OTLP push exporter and Go runtime instrumentation.
// It is safe to call more than once; only the first call configures the provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "membership-backend"
	}

	initOnce.Do(func() {
		attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
		for k, v := range cfg.ResourceAttrs {
			attrs = append(attrs, attribute.String(k, v))
		}

		exp, err := prometheus.New(prometheus.WithoutUnits())
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
		if err != nil {
			initErr = err
			return
		}

		providerOpts := []sdkmetric.Option{
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		}
		pushReader, err := otlpReader(ctx, cfg)
		if err != nil {
			initErr = err
			return
		}
		if pushReader != nil {
			providerOpts = append(providerOpts, sdkmetric.WithReader(pushReader))
			slog.Info("Exporting metrics over OTLP", "endpoint", cfg.OTLPEndpoint)
		}

		meterProvider = sdkmetric.NewMeterProvider(providerOpts...)
		otel.SetMeterProvider(meterProvider)
		httpHandler = promhttp.Handler()

		meter := meterProvider.Meter(cfg.ServiceName)
		if requestCounter, initErr = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests processed"),
		); initErr != nil {
			return
		}
		if latencyHist, initErr = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("HTTP request duration in seconds"),
		); initErr != nil {
			return
		}
		if businessEventCounter, initErr = meter.Int64Counter(
			"business_events_total",
			metric.WithDescription("Business event counts by action and outcome"),
		); initErr != nil {
			return
		}
		if dbLatencyHist, initErr = meter.Float64Histogram(
			"db_latency_seconds",
			metric.WithDescription("Database latency segmented by table and operation"),
		); initErr != nil {
			return
		}

		// Go runtime metrics (goroutines, GC, memory)
		initErr = runtime.Start(
			runtime.WithMinimumReadMemStatsInterval(10*time.Second),
			runtime.WithMeterProvider(meterProvider),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}, nil
}

// Handler returns the Prometheus /metrics handler.
func Handler() http.Handler {
	if httpHandler != nil {
		return httpHandler
	}
	return http.NotFoundHandler()
}

// HTTPMetricsMiddleware records request counts and latency keyed by the chi route pattern.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCounter == nil || latencyHist == nil {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", recorder.status),
		)
		requestCounter.Add(r.Context(), 1, attrs)
		latencyHist.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

// RecordBusinessEvent records KPIs such as submitted requests or approvals.
func RecordBusinessEvent(ctx context.Context, action string, success bool) {
	if businessEventCounter == nil {
		return
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}
	businessEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("business.action", action),
		attribute.String("business.outcome", outcome),
	))
}

// RecordDBLatency records datastore read/write duration.
func RecordDBLatency(ctx context.Context, table, operation string, duration time.Duration) {
	if dbLatencyHist == nil {
		return
	}

	dbLatencyHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("db.table", table),
		attribute.String("db.operation", operation),
	))
}
