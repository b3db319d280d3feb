package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-widget/internal/display"
	"github.com/smokyabdulrahman/prayer-widget/internal/widget"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the live widget",
		Long: "Run the widget until interrupted: a ticking clock, the countdown to the next prayer,\n" +
			"an alarm when a prayer starts, and a daily refresh of the prayer times.\n" +
			"When stdout is not a terminal one status line is printed per second.",
		Args: cobra.NoArgs,
		RunE: runWidget,
	}
}

func runWidget(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := display.NewScreen(os.Stdout, display.IsTerminal(os.Stdout))
	screen.Start()
	defer screen.Stop()

	opts := widget.Options{
		Schedules:    a.fetcher(),
		Temperatures: a.weather(),
		Sink:         a.sink(),
		Renderer:     screen,
		Language:     a.cfg.Language,
		TimeFormat:   a.cfg.TimeFormat,
		Location:     a.location(),
		RefreshSpec:  a.cfg.RefreshCron,
		Log:          a.log,
	}
	if a.history != nil {
		opts.Fired = a.history
	}

	a.log.Info().
		Str("source", a.cfg.Source).
		Str("refresh", a.cfg.RefreshCron).
		Msg("starting widget")

	return widget.New(opts).Run(ctx)
}
