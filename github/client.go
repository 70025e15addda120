package github

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v73/github"
	"github.com/rs/zerolog"
	gh_graphql "github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/relaymesh/app-scribe/base"
	"github.com/relaymesh/app-scribe/config"
	"github.com/relaymesh/app-scribe/telemetry"
)

// Client is an API client authenticated with one installation token.
//
// The token is resolved once at construction and never refreshed: a Client
// held across the ~1 hour token lifetime starts failing with authorization
// errors, and its owner must build a fresh one (see Factory.Invalidate).
type Client struct {
	// Rest is the GitHub REST API client.
	Rest *github.Client
	// GraphQL is the GitHub GraphQL API client.
	GraphQL *gh_graphql.Client

	// tokenSource carries the installation token as a static bearer credential.
	tokenSource oauth2.TokenSource
	logger      zerolog.Logger
	metrics     *telemetry.Metrics
}

// ClientOption is a function that can be used to configure the GitHub client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	cfg           config.App
	logger        zerolog.Logger
	metrics       *telemetry.Metrics
	issuer        *TokenIssuer
	baseTransport http.RoundTripper
}

// WithConfig sets the App credentials used to resolve the installation token.
func WithConfig(cfg config.App) ClientOption {
	return func(o *clientOptions) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger for the GitHub client.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics instance for the GitHub client.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(o *clientOptions) {
		o.metrics = metrics
	}
}

// WithTokenIssuer sets a pre-built token issuer instead of constructing one
// from config. Useful for testing.
func WithTokenIssuer(issuer *TokenIssuer) ClientOption {
	return func(o *clientOptions) {
		o.issuer = issuer
	}
}

// WithBaseTransport sets the base transport for all API calls. Useful for testing.
func WithBaseTransport(transport http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.baseTransport = transport
	}
}

// NewClient resolves an installation token and builds REST and GraphQL
// clients around it. Each invocation performs a full token re-resolution;
// there is no cache at this level and no retry on transport failure.
func NewClient(ctx context.Context, options ...ClientOption) (*Client, error) {
	opts := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(opts)
	}

	issuer := opts.issuer
	if issuer == nil {
		var err error
		issuerOpts := []IssuerOption{
			WithIssuerLogger(opts.logger),
			WithIssuerMetrics(opts.metrics),
		}
		if opts.baseTransport != nil {
			issuerOpts = append(issuerOpts, WithIssuerTransport(opts.baseTransport))
		}
		issuer, err = NewTokenIssuer(opts.cfg, issuerOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to set up token issuer: %w", err)
		}
	}

	token, err := issuer.IssueToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve installation token: %w", err)
	}

	client := &Client{
		tokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		logger:      opts.logger,
		metrics:     opts.metrics,
	}

	onPrimaryRateLimitHit := func(cbCtx *github_primary_ratelimit.CallbackContext) {
		l := opts.logger.Debug().Str("limit", "primary")
		if cbCtx.Request != nil {
			l = l.Str("request_url", cbCtx.Request.URL.String())
		}
		if cbCtx.Response != nil {
			l = l.Int("status", cbCtx.Response.StatusCode)
		}
		if cbCtx.Category != "" {
			l = l.Str("category", string(cbCtx.Category))
		}
		if cbCtx.ResetTime != nil {
			l = l.Str("reset_time", cbCtx.ResetTime.String())
		}
		l.Msg(base.RateLimitHitMsg)

		if cbCtx.Request != nil {
			client.metrics.IncGitHubRateLimitHit(cbCtx.Request.Context())
		}
	}

	onSecondaryRateLimitHit := func(cbCtx *github_secondary_ratelimit.CallbackContext) {
		l := opts.logger.Debug().Str("limit", "secondary")
		if cbCtx.Request != nil {
			l = l.Str("request_url", cbCtx.Request.URL.String())
		}
		if cbCtx.Response != nil {
			l = l.Int("status", cbCtx.Response.StatusCode)
		}
		if cbCtx.ResetTime != nil {
			l = l.Str("reset_time", cbCtx.ResetTime.String())
		}
		if cbCtx.TotalSleepTime != nil {
			l = l.Str("total_sleep_time", cbCtx.TotalSleepTime.String())
		}
		l.Msg(base.RateLimitHitMsg)

		if cbCtx.Request != nil {
			client.metrics.IncGitHubRateLimitHit(cbCtx.Request.Context())
		}
	}

	restTransport := &oauth2.Transport{
		Source: client.tokenSource,
		Base:   base.NewTransport("github-rest", clientBaseOpts(opts)...),
	}

	rateLimiter := github_ratelimit.NewClient(
		restTransport,
		github_primary_ratelimit.WithLimitDetectedCallback(onPrimaryRateLimitHit),
		github_secondary_ratelimit.WithLimitDetectedCallback(onSecondaryRateLimitHit),
	)

	client.Rest = github.NewClient(rateLimiter)
	if opts.cfg.BaseURL != "" && opts.cfg.BaseURL != config.DefaultGitHubBaseURL {
		client.Rest, err = client.Rest.WithEnterpriseURLs(opts.cfg.BaseURL, opts.cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set enterprise URLs: %w", err)
		}
	}
	if opts.cfg.AppName != "" {
		client.Rest.UserAgent = opts.cfg.AppName
	}

	graphQLClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &oauth2.Transport{
			Source: client.tokenSource,
			Base:   base.NewTransport("github-graphql", clientBaseOpts(opts)...),
		},
	}

	if opts.cfg.BaseURL != "" && opts.cfg.BaseURL != config.DefaultGitHubBaseURL {
		client.GraphQL = gh_graphql.NewEnterpriseClient(opts.cfg.BaseURL, graphQLClient)
	} else {
		client.GraphQL = gh_graphql.NewClient(graphQLClient)
	}

	return client, nil
}

func clientBaseOpts(opts *clientOptions) []base.Option {
	baseOpts := []base.Option{base.WithLogger(opts.logger)}
	if opts.baseTransport != nil {
		baseOpts = append(baseOpts, base.WithBaseTransport(opts.baseTransport))
	}
	return baseOpts
}

// Factory lazily creates and caches one authenticated Client. The cache
// holds the client for the Factory's lifetime with no expiry tracking;
// invalidation is an explicit caller decision, never hidden retry magic.
type Factory struct {
	mu      sync.Mutex
	client  *Client
	options []ClientOption
}

// NewFactory returns a Factory that builds clients with the given options.
func NewFactory(options ...ClientOption) *Factory {
	return &Factory{options: options}
}

// Client returns the cached client, creating it on first use. Concurrent
// callers are serialized, so exactly one token resolution happens.
func (f *Factory) Client(ctx context.Context) (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	client, err := NewClient(ctx, f.options...)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// Invalidate drops the cached client so the next Client call resolves a
// fresh installation token. Call it when an operation fails with an
// authorization error (see APIError.IsAuthorization).
func (f *Factory) Invalidate() {
	f.mu.Lock()
	f.client = nil
	f.mu.Unlock()
}
