// Package telemetry provides OpenTelemetry metrics for the application.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// serviceName is the name of the service for telemetry purposes.
const serviceName = "app-scribe"

// Metrics records counters and histograms for GitHub App operations.
type Metrics struct{}

type options struct {
	ctx          context.Context
	exporter     string
	otlpEndpoint string
	attributes   []attribute.KeyValue
}

// Option is a function that sets an option for the Metrics instance.
type Option func(*options)

// WithContext sets the context for the Metrics instance.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithExporter sets the exporter for the Metrics instance ("stdout" or "otlp").
func WithExporter(exporter string) Option {
	return func(o *options) {
		if exporter != "" {
			o.exporter = exporter
		}
	}
}

// WithOTLPEndpoint sets the OTLP endpoint for the Metrics instance.
func WithOTLPEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.otlpEndpoint = endpoint
		}
	}
}

func defaultOptions() *options {
	return &options{
		ctx:          context.Background(),
		exporter:     "stdout",
		otlpEndpoint: "localhost:4317",
		attributes:   []attribute.KeyValue{attribute.String("service.name", serviceName)},
	}
}

// NewMetrics creates a new Metrics instance, sets up the OpenTelemetry SDK
// and returns a shutdown function that must be called on exit.
func NewMetrics(opts ...Option) (*Metrics, func(context.Context) error, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	m := &Metrics{}
	shutdown, err := m.setupOtelSDK(o)
	if err != nil {
		return nil, nil, errors.New("failed to set up OpenTelemetry SDK: " + err.Error())
	}
	return m, shutdown, nil
}

func (m *Metrics) setupOtelSDK(o *options) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meterProvider, err := m.newMeterProvider(o)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(meterProvider)

	return meterProvider.Shutdown, nil
}

func (m *Metrics) newMeterProvider(o *options) (*metric.MeterProvider, error) {
	var (
		metricExporter metric.Exporter
		err            error
	)
	switch o.exporter {
	case "stdout":
		metricExporter, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	case "otlp":
		metricExporter, err = otlpmetricgrpc.New(o.ctx,
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithEndpoint(o.otlpEndpoint),
		)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported exporter type: " + o.exporter)
	}

	res, err := resource.New(
		o.ctx,
		resource.WithAttributes(o.attributes...),
		resource.WithSchemaURL("https://opentelemetry.io/schemas/1.4.0"),
	)
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
	), nil
}
