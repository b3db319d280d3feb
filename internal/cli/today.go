package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-widget/internal/cache"
	"github.com/smokyabdulrahman/prayer-widget/internal/display"
	"github.com/smokyabdulrahman/prayer-widget/internal/fetcher"
	"github.com/smokyabdulrahman/prayer-widget/internal/hijri"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
	"github.com/smokyabdulrahman/prayer-widget/internal/weather"
)

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's prayer times once",
		Long:  "Print today's prayer times, the countdown to the next prayer and the temperature.\nThis is also the default action of the root command.",
		Args:  cobra.NoArgs,
		RunE:  runToday,
	}
}

func runToday(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	now := time.Now()

	res := a.fetcher().Fetch(ctx, now)
	temp := a.weather().Current(ctx)

	view := buildToday(now, res, temp, a.location(), a.cfg.TimeFormat, a.cfg.Language)

	if FlagJSON {
		return printTodayJSON(os.Stdout, view)
	}
	printTodayRich(os.Stdout, view)
	return nil
}

// todayView is everything the today output shows, independent of format.
type todayView struct {
	Location    string
	Gregorian   string
	Hijri       string
	Schedule    prayer.Schedule
	Status      prayer.Result
	Temperature weather.Temperature
	Origin      fetcher.Origin
	Date        string // day the schedule belongs to
	Stale       bool
	TimeFormat  string
	Language    string
}

func buildToday(now time.Time, res fetcher.Result, temp weather.Temperature, location, timeFormat, lang string) todayView {
	return todayView{
		Location:    location,
		Gregorian:   hijri.FormatGregorian(now, lang),
		Hijri:       hijri.FromTime(now).Format(lang),
		Schedule:    res.Schedule,
		Status:      prayer.Compute(now, res.Schedule),
		Temperature: temp,
		Origin:      res.Origin,
		Date:        res.Date,
		Stale:       res.Date != "" && res.Date != now.Format(cache.DateLayout),
		TimeFormat:  timeFormat,
		Language:    lang,
	}
}

// timeOf returns the display time of a prayer, or "--:--".
func (v todayView) timeOf(name string) string {
	e, ok := v.Schedule[name]
	if !ok {
		return "--:--"
	}
	if v.TimeFormat == "12h" && e.H12 != "" {
		return e.H12
	}
	return e.H24
}

func printTodayRich(w io.Writer, v todayView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	if v.Location != "" {
		fmt.Fprintf(w, "  %s\n", v.Location)
	}
	fmt.Fprintf(w, "  %s\n", v.Gregorian)
	fmt.Fprintf(w, "  %s\n", v.Hijri)
	fmt.Fprintln(w)

	tbl := display.NewTable(nil)
	for i, name := range prayer.Names {
		tbl.AddRow(prayer.Label(name, v.Language), v.timeOf(name))
		if v.Status.State != prayer.Unavailable && v.Status.Prayer == name {
			tbl.Highlight(i)
		}
	}
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", display.Yellow(v.Status.Text(v.Language)))
	fmt.Fprintf(w, "  %s\n", display.Gray(v.Temperature.String()))

	switch {
	case v.Origin == fetcher.Empty:
		fmt.Fprintf(w, "  %s\n", display.Dim("no prayer times available, check your connection"))
	case v.Stale:
		fmt.Fprintf(w, "  %s\n", display.Dim("offline, showing times from "+v.Date))
	}
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the today command.
type todayJSON struct {
	Location    string            `json:"location,omitempty"`
	Date        todayJSONDate     `json:"date"`
	Timings     map[string]string `json:"timings"`
	Next        *todayJSONNext    `json:"next"`
	Temperature *float64          `json:"temperature_c"`
	Source      todayJSONSource   `json:"source"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
	Now       bool   `json:"now"`
}

type todayJSONSource struct {
	Origin string `json:"origin"`
	Date   string `json:"date,omitempty"`
	Stale  bool   `json:"stale"`
}

func printTodayJSON(w io.Writer, v todayView) error {
	out := todayJSON{
		Location: v.Location,
		Date:     todayJSONDate{Gregorian: v.Gregorian, Hijri: v.Hijri},
		Timings:  make(map[string]string, len(v.Schedule)),
		Source:   todayJSONSource{Origin: v.Origin.String(), Date: v.Date, Stale: v.Stale},
	}

	for name := range v.Schedule {
		out.Timings[strings.ToLower(name)] = v.timeOf(name)
	}

	if v.Status.State != prayer.Unavailable {
		out.Next = &todayJSONNext{
			Prayer:    strings.ToLower(v.Status.Prayer),
			Time:      v.timeOf(v.Status.Prayer),
			Remaining: prayer.FormatClock(v.Status.Remaining),
			Now:       v.Status.State == prayer.Now,
		}
	}

	if v.Temperature.Available {
		c := v.Temperature.Celsius
		out.Temperature = &c
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
