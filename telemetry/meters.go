package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	githubMeter = otel.Meter("app-scribe/github")
	authMeter   = otel.Meter("app-scribe/auth")
)

// IncGitHubRequest increments the GitHub API request counter for an operation.
func (m *Metrics) IncGitHubRequest(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	counter, _ := githubMeter.Int64Counter("github.api.requests",
		metric.WithDescription("Count of GitHub API operations"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// IncGitHubRateLimitHit increments GitHub rate limit hits.
func (m *Metrics) IncGitHubRateLimitHit(ctx context.Context) {
	if m == nil {
		return
	}
	counter, _ := githubMeter.Int64Counter("github.rate.limit.hits",
		metric.WithDescription("Count of GitHub rate limit hits"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1)
}

// IncTokenIssued increments the installation token issuance counter.
func (m *Metrics) IncTokenIssued(ctx context.Context, org string) {
	if m == nil {
		return
	}
	counter, _ := authMeter.Int64Counter("github.app.tokens.issued",
		metric.WithDescription("Count of installation tokens issued"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("org", org),
	))
}

// RecordMutationDuration records the time taken by a content mutation.
func (m *Metrics) RecordMutationDuration(ctx context.Context, strategy string, duration time.Duration) {
	if m == nil {
		return
	}
	histogram, _ := githubMeter.Float64Histogram("github.mutation.duration",
		metric.WithDescription("Duration of repository content mutations"),
		metric.WithUnit("ms"))
	histogram.Record(ctx, duration.Seconds()*1000, metric.WithAttributes(
		attribute.String("strategy", strategy),
	))
}
