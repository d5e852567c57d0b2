package sqlstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/sqlstore"

type metrics struct {
	queryCount    metric.Int64Counter
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
}

func newMetrics(meter metric.Meter) *metrics {
	queryCount, _ := meter.Int64Counter("store.query.count",
		metric.WithDescription("Total number of storage operations executed"),
		metric.WithUnit("{query}"),
	)

	queryDuration, _ := meter.Float64Histogram("store.query.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	queryErrors, _ := meter.Int64Counter("store.query.errors",
		metric.WithDescription("Total number of failed storage operations"),
		metric.WithUnit("{error}"),
	)

	return &metrics{
		queryCount:    queryCount,
		queryDuration: queryDuration,
		queryErrors:   queryErrors,
	}
}

// Option configures a Store.
type Option func(*Store)

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(s *Store) {
		s.metrics = newMetrics(meter)
	}
}

// WithHashCost overrides the bcrypt cost used for new users.
func WithHashCost(cost int) Option {
	return func(s *Store) {
		s.hashCost = cost
	}
}

func defaultTracer() trace.Tracer { return otel.Tracer(instrumentationName) }

func defaultMetrics() *metrics { return newMetrics(otel.Meter(instrumentationName)) }

// observe runs fn inside a span and records the operation metrics.
// ErrNotFound and ErrEmailExists are expected outcomes and are not counted as failures.
func (s *Store) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.dialect.Name()),
			attribute.String("db.operation", operation),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	failed := err != nil &&
		!errors.Is(err, storage.ErrNotFound) &&
		!errors.Is(err, storage.ErrEmailExists)

	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.system", s.dialect.Name()),
	)
	s.metrics.queryCount.Add(ctx, 1, attrs)
	s.metrics.queryDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	if failed {
		s.metrics.queryErrors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "Storage operation failed", "operation", operation, "duration", elapsed, "err", err)
	}

	return err
}
