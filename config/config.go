// Package config provides the configuration for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default log level for the application.
	DefaultLogLevel = "info"
	// DefaultGitHubBaseURL is the default base URL for the GitHub API.
	DefaultGitHubBaseURL = "https://api.github.com"

	// EnvVarLogLevel is the environment variable for the log level.
	EnvVarLogLevel = "LOG_LEVEL"

	// EnvVarAppID is the environment variable for the GitHub App ID.
	EnvVarAppID = "GITHUB_APP_ID"
	// EnvVarAppName is the environment variable for the GitHub App name.
	EnvVarAppName = "GITHUB_APP_NAME"
	// EnvVarPrivateKey is the environment variable for the GitHub App private key (PEM).
	EnvVarPrivateKey = "GITHUB_APP_PRIVATE_KEY"
	// EnvVarPrivateKeyFile is the environment variable for a path to the GitHub App private key file.
	EnvVarPrivateKeyFile = "GITHUB_APP_PRIVATE_KEY_FILE"
	// EnvVarOrg is the environment variable for the organization the App is installed on.
	EnvVarOrg = "GITHUB_ORG_NAME"
)

// These variables are set at build time and describe the version and build of the application
var (
	Version   string
	Commit    string
	BuildTime = time.Now().Format("2006-01-02T15:04:05.000")
	BuiltBy   = "local"
	BuiltWith = runtime.Version()
)

// VersionString gives a full string of the version of the application.
func VersionString() string {
	return fmt.Sprintf(
		"%s on commit %s, built at %s with %s by %s",
		Version,
		Commit,
		BuildTime,
		BuiltWith,
		BuiltBy,
	)
}

// Config is the application configuration, set by flags, then by environment variables.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogPath  string `mapstructure:"LOG_PATH"`

	App       App       `mapstructure:",squash"`
	Telemetry Telemetry `mapstructure:",squash"`
}

// App holds the GitHub App credentials used to mint installation tokens.
// All four of AppID, AppName, private key (inline or file) and Org are
// required before a token can be issued.
type App struct {
	BaseURL string `mapstructure:"GITHUB_BASE_URL"`

	AppID          string `mapstructure:"GITHUB_APP_ID"`
	AppName        string `mapstructure:"GITHUB_APP_NAME"`
	PrivateKey     string `mapstructure:"GITHUB_APP_PRIVATE_KEY"`
	PrivateKeyFile string `mapstructure:"GITHUB_APP_PRIVATE_KEY_FILE"`
	Org            string `mapstructure:"GITHUB_ORG_NAME"`
}

// Telemetry configures the metrics exporter.
type Telemetry struct {
	MetricsExporter string `mapstructure:"METRICS_EXPORTER"`
	MetricsEndpoint string `mapstructure:"METRICS_ENDPOINT"`
}

// ValidationError reports every missing required credential at once so an
// operator can fix a misconfigured deployment in a single pass.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"missing required configuration: %s. Provide values or set the named environment variables",
		strings.Join(e.Missing, ", "),
	)
}

// Validate checks that all required App credentials are present.
// It returns a *ValidationError naming every absent field, not just the first.
func (a App) Validate() error {
	var missing []string
	if a.AppID == "" {
		missing = append(missing, EnvVarAppID)
	}
	if a.AppName == "" {
		missing = append(missing, EnvVarAppName)
	}
	if a.PrivateKey == "" && a.PrivateKeyFile == "" {
		missing = append(missing, EnvVarPrivateKey)
	}
	if a.Org == "" {
		missing = append(missing, EnvVarOrg)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// GetSecrets returns all secret values held in the config so they can be
// redacted from log output.
func (c *Config) GetSecrets() []string {
	var secrets []string
	if c.App.PrivateKey != "" {
		secrets = append(secrets, c.App.PrivateKey)
	}
	return secrets
}

// MustBindConfig registers the CLI flags shared by every command and binds
// them into the given viper instance, alongside the environment and default
// bindings. Flags win over environment variables, which win over the .env
// file. Panics on programmer error.
func MustBindConfig(cmd *cobra.Command, v *viper.Viper) {
	setupViperDefaults(v)

	flags := cmd.PersistentFlags()
	flags.String("log-level", DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	flags.String("log-path", "", "Also write logs to this file")
	flags.String("github-base-url", DefaultGitHubBaseURL, "GitHub API base URL")
	flags.String("github-org-name", "", "Organization the GitHub App is installed on")
	flags.String("github-app-private-key-file", "", "Path to the GitHub App private key PEM file")
	flags.String("metrics-exporter", "stdout", "Metrics exporter (stdout, otlp)")
	flags.String("metrics-endpoint", "", "OTLP gRPC endpoint for metrics")

	binds := map[string]string{
		EnvVarLogLevel:       "log-level",
		"LOG_PATH":           "log-path",
		"GITHUB_BASE_URL":    "github-base-url",
		EnvVarOrg:            "github-org-name",
		EnvVarPrivateKeyFile: "github-app-private-key-file",
		"METRICS_EXPORTER":   "metrics-exporter",
		"METRICS_ENDPOINT":   "metrics-endpoint",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Errorf("failed to bind flag %s: %w", flag, err))
		}
	}
}

// Option is a function that can be used to configure loading the config.
type Option func(*configOptions)

type configOptions struct {
	configFile string
	viper      *viper.Viper
}

// WithConfigFile sets the exact config file to load.
func WithConfigFile(configFile string) Option {
	return func(cfg *configOptions) {
		cfg.configFile = configFile
	}
}

// WithViper sets a custom viper instance to use. Useful for testing.
func WithViper(v *viper.Viper) Option {
	return func(cfg *configOptions) {
		cfg.viper = v
	}
}

// Load loads config from environment variables and flags.
func Load(options ...Option) (*Config, error) {
	opts := &configOptions{
		configFile: ".env",
		viper:      viper.GetViper(), // Use the global viper instance by default
	}
	for _, opt := range options {
		opt(opts)
	}

	v := opts.viper
	if v == nil {
		v = viper.New()
		setupViperDefaults(v)
	}

	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		// Ignore config file not found error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load but panics if there is an error.
func MustLoad(options ...Option) *Config {
	cfg, err := Load(options...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func init() {
	// Version setup
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if Version == "" {
			Version = buildInfo.Main.Version
		}
		if Commit == "" {
			Commit = buildInfo.Main.Sum
		}
		BuiltWith = buildInfo.GoVersion
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "dev"
	}

	setupViperDefaults(viper.GetViper())
}

// setupViperDefaults configures viper with sensible defaults for all configuration fields
func setupViperDefaults(v *viper.Viper) {
	v.SetDefault(EnvVarLogLevel, DefaultLogLevel)
	v.SetDefault("GITHUB_BASE_URL", DefaultGitHubBaseURL)
	v.SetDefault("METRICS_EXPORTER", "stdout")

	// Handle dashes in CLI flags
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Automatically bind all environment variables based on struct tags
	if err := bindEnvsFromStruct(v, reflect.TypeOf(Config{})); err != nil {
		panic(err)
	}

	v.AutomaticEnv()
}

// bindEnvsFromStruct binds environment variables to viper based on struct tags.
// Avoids having to manually viper.BindEnv for each field.
func bindEnvsFromStruct(v *viper.Viper, t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("type %s is not a struct", t.Name())
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		// Skip fields without a mapstructure tag
		if tag == "" {
			continue
		}
		if strings.Contains(tag, ",squash") {
			if err := bindEnvsFromStruct(v, field.Type); err != nil {
				return err
			}
			continue
		}
		if tag == "-" {
			continue
		}
		if err := v.BindEnv(tag); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", tag, err)
		}
	}
	return nil
}
