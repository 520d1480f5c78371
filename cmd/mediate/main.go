package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glimte/mediate-go/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "mediate",
		Short: "Inspect and exercise a mediator pipeline",
		Long: `mediate builds a mediator from MEDIATE_* environment settings and command
line flags, and lets you inspect the behaviour chain a handler contract gets
or dispatch a demo Ping query through it.

Examples:
  mediate plan PingHandler
  mediate ping hello --count 10
  MEDIATE_RATE_LIMIT=5 mediate ping --count 20
  mediate explore`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.Bool("scoped-requests", false, "Resolve every dispatch from its own scope")
	flags.Duration("timeout", 0, "Per-request timeout, 0 keeps the configured value")
	flags.Float64("rate-limit", 0, "Requests per second per request type, 0 keeps the configured value")
	flags.Int("cache-size", 0, "Response cache size, 0 keeps the configured value")
	flags.Bool("breaker", false, "Enable the circuit breaker")

	bindFlags(v, flags)

	rootCmd.AddCommand(
		newPlanCommand(v),
		newPingCommand(v),
		newExploreCommand(v),
	)

	return rootCmd
}

// bindFlags exposes every persistent flag to viper under its snake_case key,
// so MEDIATE_<KEY> environment variables work for flags too
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(config.Prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// loadSettings reads MEDIATE_* settings and applies the flags set on the
// command line on top of them
func loadSettings(v *viper.Viper) (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v.IsSet("log_level") {
		s.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("log_format") {
		s.LogFormat = v.GetString("log_format")
	}
	if v.IsSet("scoped_requests") {
		s.ScopedRequests = v.GetBool("scoped_requests")
	}
	if d := v.GetDuration("timeout"); d > 0 {
		s.Timeout = d
	}
	if r := v.GetFloat64("rate_limit"); r > 0 {
		s.RateLimit = r
	}
	if n := v.GetInt("cache_size"); n > 0 {
		s.CacheSize = n
	}
	if v.GetBool("breaker") {
		s.Breaker.Enabled = true
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func setup(v *viper.Viper, logOut io.Writer) (*config.Settings, *demo, error) {
	s, err := loadSettings(v)
	if err != nil {
		return nil, nil, err
	}

	d, err := newDemo(s, s.Logger(logOut), nil)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}
