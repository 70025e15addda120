package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"github.com/jferrl/go-githubauth"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/relaymesh/app-scribe/base"
	"github.com/relaymesh/app-scribe/config"
	"github.com/relaymesh/app-scribe/telemetry"
)

// appTokenLifetime is how long a signed App JWT stays valid. Kept short to
// minimize exposure if leaked; it is independent of the lifetime of the
// installation token it is exchanged for. 10 minutes is GitHub's maximum.
const appTokenLifetime = 10 * time.Minute

var (
	// ErrInvalidAppID is returned when the GitHub App ID is not numeric.
	ErrInvalidAppID = errors.New("invalid GitHub App ID")
	// ErrNoPrivateKey is returned when no usable private key is configured.
	ErrNoPrivateKey = errors.New("no GitHub App private key provided")
)

// TokenIssuer signs short-lived App JWTs and exchanges them for installation
// access tokens scoped to one configured organization.
//
// There is exactly one resolution path, IssueToken. It takes a context, so a
// caller that wants a non-blocking variant runs it in a goroutine rather
// than this package keeping a second copy of the logic.
type TokenIssuer struct {
	org       string
	appClient *github.Client
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*issuerOptions)

type issuerOptions struct {
	logger        zerolog.Logger
	metrics       *telemetry.Metrics
	baseTransport http.RoundTripper
}

// WithIssuerLogger sets the logger for the token issuer.
func WithIssuerLogger(logger zerolog.Logger) IssuerOption {
	return func(o *issuerOptions) {
		o.logger = logger
	}
}

// WithIssuerMetrics sets the metrics instance for the token issuer.
func WithIssuerMetrics(metrics *telemetry.Metrics) IssuerOption {
	return func(o *issuerOptions) {
		o.metrics = metrics
	}
}

// WithIssuerTransport sets the base transport for App-level API calls.
// Useful for testing.
func WithIssuerTransport(transport http.RoundTripper) IssuerOption {
	return func(o *issuerOptions) {
		o.baseTransport = transport
	}
}

// NewTokenIssuer validates the App credentials and builds an App-level API
// client whose transport signs a fresh RS256 JWT (claims iat=now,
// exp=now+600s, iss=app_id) for each request.
func NewTokenIssuer(cfg config.App, options ...IssuerOption) (*TokenIssuer, error) {
	opts := &issuerOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appID, err := strconv.ParseInt(cfg.AppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAppID, err)
	}

	privateKey, err := loadPrivateKey(cfg)
	if err != nil {
		return nil, err
	}

	appTokenSource, err := githubauth.NewApplicationTokenSource(
		appID,
		privateKey,
		githubauth.WithApplicationTokenExpiration(appTokenLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create App token source: %w", err)
	}

	baseOpts := []base.Option{base.WithLogger(opts.logger)}
	if opts.baseTransport != nil {
		baseOpts = append(baseOpts, base.WithBaseTransport(opts.baseTransport))
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &oauth2.Transport{
			Source: appTokenSource,
			Base:   base.NewTransport("github-app", baseOpts...),
		},
	}

	appClient := github.NewClient(httpClient)
	if cfg.BaseURL != "" && cfg.BaseURL != config.DefaultGitHubBaseURL {
		appClient, err = appClient.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set enterprise URLs: %w", err)
		}
	}
	if cfg.AppName != "" {
		appClient.UserAgent = cfg.AppName
	}

	return &TokenIssuer{
		org:       cfg.Org,
		appClient: appClient,
		logger:    opts.logger.With().Str("org", cfg.Org).Logger(),
		metrics:   opts.metrics,
	}, nil
}

// IssueToken resolves an installation access token for the configured
// organization: it lists every installation visible to the App, matches the
// account login case-insensitively, and exchanges the installation ID for a
// token. The App JWT is discarded after the exchange.
func (i *TokenIssuer) IssueToken(ctx context.Context) (string, error) {
	installation, err := i.findInstallation(ctx)
	if err != nil {
		return "", err
	}

	token, resp, err := i.appClient.Apps.CreateInstallationToken(ctx, installation.GetID(), nil)
	if err != nil {
		return "", apiErr("create_installation_token", "", "", "", resp, err)
	}

	i.metrics.IncTokenIssued(ctx, i.org)
	i.logger.Debug().
		Int64("installation_id", installation.GetID()).
		Time("expires_at", token.GetExpiresAt().Time).
		Msg("Issued installation token")

	return token.GetToken(), nil
}

// findInstallation drains the full installation listing; GitHub may
// paginate it even though an App usually has few installations.
func (i *TokenIssuer) findInstallation(ctx context.Context) (*github.Installation, error) {
	listOpts := &github.ListOptions{PerPage: 100}
	for {
		installations, resp, err := i.appClient.Apps.ListInstallations(ctx, listOpts)
		if err != nil {
			return nil, apiErr("list_installations", "", "", "", resp, err)
		}
		for _, installation := range installations {
			if strings.EqualFold(installation.GetAccount().GetLogin(), i.org) {
				return installation, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return nil, &InstallationNotFoundError{Org: i.org}
}

func loadPrivateKey(cfg config.App) ([]byte, error) {
	if cfg.PrivateKey != "" {
		return []byte(cfg.PrivateKey), nil
	}
	if cfg.PrivateKeyFile != "" {
		key, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file %s: %w", cfg.PrivateKeyFile, err)
		}
		return key, nil
	}
	return nil, ErrNoPrivateKey
}
