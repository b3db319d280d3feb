package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next prayer on one line",
		Long: "Print the next prayer and its countdown on a single line without a trailing newline,\n" +
			"suitable for tmux or other status bars.",
		Args: cobra.NoArgs,
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatCountdown,
		"Display format: countdown, time-remaining, next-prayer-time, name-and-time, name-and-remaining, "+
			"short-name-and-time, short-name-and-remaining, full, or a Go template such as '{{.Name}} {{.Countdown}}'")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	res := a.fetcher().Fetch(cmd.Context(), now)

	r := prayer.Compute(now, res.Schedule)
	fmt.Fprint(os.Stdout, prayer.FormatOutput(r, flagFormat, a.cfg.GoTimeFormat(), a.cfg.Language))
	return nil
}
