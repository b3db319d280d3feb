package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/prayer-widget/internal/config"
	"github.com/smokyabdulrahman/prayer-widget/internal/logger"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagSource     string
	FlagDataFile   string
	FlagTimeFormat string
	FlagLanguage   string
	FlagLogLevel   string
	FlagJSON       bool
)

// loadedConfig holds the config loaded during PersistentPreRunE.
var loadedConfig *config.Config

// logOutput is where the logger writes. Tests swap it.
var logOutput io.Writer = os.Stderr

// NewRootCmd creates the root command. The version is set by the calling
// binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prayer-widget",
		Short: "Prayer times widget with countdown and alarm",
		Long: "A terminal widget that shows today's prayer times, counts down to the next prayer\n" +
			"and sounds an alarm when it starts. Times are scraped from urdupoint.com or\n" +
			"fetched from the Al Adhan API, and cached for offline use.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "City for the Al Adhan source (takes precedence over config)")
	pf.StringVar(&FlagCountry, "country", "", "Country for the Al Adhan source")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Latitude for the Al Adhan source")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Longitude for the Al Adhan source")
	pf.IntVar(&FlagMethod, "method", -1, "Calculation method (see 'methods')")
	pf.IntVar(&FlagSchool, "school", -1, "School (0=Shafi, 1=Hanafi)")
	pf.StringVar(&FlagSource, "source", "", "Prayer time source: scrape or aladhan")
	pf.StringVar(&FlagDataFile, "data-file", "", "Cache file (default: ~/.cache/prayer-widget/data.json)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h")
	pf.StringVar(&FlagLanguage, "lang", "", "Display language: en or ar")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newWeatherCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// effectiveConfig returns the merged configuration:
// CLI flags > environment > config file > defaults.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "method") {
		m := FlagMethod
		cfg.Method = &m
	}
	if flagWasSet(flags, root, "school") {
		s := FlagSchool
		cfg.School = &s
	}
	if flagWasSet(flags, root, "source") {
		cfg.Source = FlagSource
	}
	if flagWasSet(flags, root, "data-file") {
		cfg.DataFile = FlagDataFile
	}
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if flagWasSet(flags, root, "lang") {
		cfg.Language = FlagLanguage
	}
	if flagWasSet(flags, root, "log-level") {
		cfg.LogLevel = FlagLogLevel
	}

	cfg.ApplyDefaults()
	return &cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.LogLevel, logOutput)
}
