// Package cmd provides the CLI for the app-scribe application.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relaymesh/app-scribe/config"
	"github.com/relaymesh/app-scribe/github"
	"github.com/relaymesh/app-scribe/logging"
	"github.com/relaymesh/app-scribe/telemetry"
)

var (
	v         = viper.New()
	appConfig *config.Config
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
	factory   *github.Factory

	metricsShutdown func(context.Context) error
)

// root is the root command for the CLI.
var root = &cobra.Command{
	Use:   "app-scribe",
	Short: "app-scribe writes repository content as a GitHub App",
	Long: `
app-scribe authenticates as a GitHub App, resolves an installation access token
for the configured organization, and uses it to read and mutate repository
content. Files can be written through the high-level contents API or the
low-level Git data API, and issues can be inspected and transitioned.

Configuration is read from CLI flags > environment variables > a .env file.
`,
	Example: `
# Show repository statistics
app-scribe repo stats myorg myrepo
# Update an existing file on a branch
app-scribe file update --owner myorg --repo myrepo --branch main --path docs/notes.md --message "update notes" notes.md
# Close an issue with a comment
app-scribe issues close myorg myrepo 42 --comment "fixed in abc123"
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		appConfig, err = config.Load(config.WithViper(v))
		if err != nil {
			return err
		}

		logger, err = logging.New(
			logging.WithLevel(appConfig.LogLevel),
			logging.WithFileName(appConfig.LogPath),
			logging.WithSecrets(appConfig.GetSecrets()),
		)
		if err != nil {
			return err
		}

		logger.Debug().
			Str("log_level", appConfig.LogLevel).
			Str("org", appConfig.App.Org).
			Msg("Loaded config")

		metrics, metricsShutdown, err = telemetry.NewMetrics(
			telemetry.WithContext(cmd.Context()),
			telemetry.WithExporter(appConfig.Telemetry.MetricsExporter),
			telemetry.WithOTLPEndpoint(appConfig.Telemetry.MetricsEndpoint),
		)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize metrics, continuing without metrics")
		}

		factory = github.NewFactory(
			github.WithConfig(appConfig.App),
			github.WithLogger(logger),
			github.WithMetrics(metrics),
		)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if metricsShutdown == nil {
			return
		}
		if err := metricsShutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown metrics")
		}
	},
}

// withClient runs fn with the cached authenticated client. When fn fails
// with an authorization error the cached client is dropped and fn runs once
// more with a freshly authenticated one, since the installation token has
// likely expired in the meantime.
func withClient(ctx context.Context, fn func(*github.Client) error) error {
	client, err := factory.Client(ctx)
	if err != nil {
		return err
	}

	err = fn(client)
	var apiErr *github.APIError
	if errors.As(err, &apiErr) && apiErr.IsAuthorization() {
		logger.Debug().Err(err).Msg("Authorization failure, re-authenticating")
		factory.Invalidate()

		client, err = factory.Client(ctx)
		if err != nil {
			return err
		}
		return fn(client)
	}
	return err
}

func init() {
	config.MustBindConfig(root, v)
}

// Execute is the entry point for the CLI.
func Execute() {
	if err := fang.Execute(context.Background(), root, fang.WithVersion(config.VersionString())); err != nil {
		os.Exit(1)
	}
}
