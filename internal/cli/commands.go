package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-widget/internal/display"
	"github.com/smokyabdulrahman/prayer-widget/internal/fetcher"
	"github.com/smokyabdulrahman/prayer-widget/internal/history"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch today's prayer times and temperature now",
		Long:  "Bypass the cache: fetch today's prayer times from the configured source and the current temperature, and store both.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			now := time.Now()
			res := a.fetcher().Refresh(ctx, now)
			temp := a.weather().Refresh(ctx)

			fmt.Printf("Prayer times: %s (%s)\n", res.Origin, res.Date)
			fmt.Printf("Temperature:  %s\n", temp)

			if res.Origin != fetcher.Network {
				return fmt.Errorf("could not fetch today's prayer times from %s", a.cfg.Source)
			}
			return nil
		},
	}
}

var flagWeatherRefresh bool

func newWeatherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Print the current temperature",
		Long:  "Print the cached temperature, fetching it from OpenWeather when nothing is cached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := a.weather()
			temp := w.Current(cmd.Context())
			if flagWeatherRefresh {
				temp = w.Refresh(cmd.Context())
			}
			fmt.Println(temp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagWeatherRefresh, "refresh", false, "Ignore the cached temperature")

	return cmd
}

var flagHistoryDays int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently fetched prayer times",
		Long:  "List the schedules stored in the history database, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.history == nil {
				return fmt.Errorf("history database unavailable")
			}

			records, err := a.history.Schedules(cmd.Context(), flagHistoryDays)
			if err != nil {
				return err
			}
			printHistory(os.Stdout, records, a.cfg.TimeFormat, a.cfg.Language)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagHistoryDays, "days", history.DefaultKeepDays, "Number of days to show")

	return cmd
}

func printHistory(w io.Writer, records []history.Record, timeFormat, lang string) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No prayer times recorded yet.")
		return
	}

	headers := []string{"Date"}
	for _, name := range prayer.Names {
		headers = append(headers, prayer.Label(name, lang))
	}
	headers = append(headers, "Source")

	tbl := display.NewTable(headers)
	for _, r := range records {
		row := []string{r.Date}
		for _, name := range prayer.Names {
			e := r.Schedule[name]
			t := e.H24
			if timeFormat == "12h" {
				t = e.H12
			}
			if t == "" {
				t = "--:--"
			}
			row = append(row, t)
		}
		row = append(row, r.Origin)
		tbl.AddRow(row...)
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
}
