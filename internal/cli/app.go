package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-widget/internal/alarm"
	"github.com/smokyabdulrahman/prayer-widget/internal/api"
	"github.com/smokyabdulrahman/prayer-widget/internal/cache"
	"github.com/smokyabdulrahman/prayer-widget/internal/config"
	"github.com/smokyabdulrahman/prayer-widget/internal/fetcher"
	"github.com/smokyabdulrahman/prayer-widget/internal/geo"
	"github.com/smokyabdulrahman/prayer-widget/internal/history"
	"github.com/smokyabdulrahman/prayer-widget/internal/scrape"
	"github.com/smokyabdulrahman/prayer-widget/internal/weather"
)

const historyFileName = "history.db"

// app holds the components a command needs, built from the effective config.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *cache.Store

	// history is nil when the database could not be opened.
	history *history.DB
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg := effectiveConfig(cmd)
	log := newLogger(cfg)

	store, err := cache.New(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: store}

	path := cfg.HistoryDB
	if path == "" {
		path = filepath.Join(filepath.Dir(store.Path()), historyFileName)
	}
	a.history, err = history.Open(path, cfg.HistoryDays, log)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("history disabled")
		a.history = nil
	}

	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Debug().Err(err).Msg("closing history")
		}
	}
}

// source returns the configured prayer time source.
func (a *app) source() fetcher.Source {
	if a.cfg.Source == config.SourceAlAdhan {
		return &api.Source{
			City:      a.cfg.City,
			Country:   a.cfg.Country,
			Latitude:  a.cfg.Latitude,
			Longitude: a.cfg.Longitude,
			Method:    a.cfg.MethodOrDefault(-1),
			School:    a.cfg.SchoolOrDefault(-1),
			Locate:    a.locate,
		}
	}
	return scrape.New(a.cfg.ScrapeURL, a.log)
}

// locate detects the location by IP, reusing a recent detection.
func (a *app) locate(ctx context.Context) (*geo.Location, error) {
	if cached := a.store.LoadGeo(); cached != nil {
		return cached, nil
	}

	loc, err := geo.DetectLocation(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.SaveGeo(loc); err != nil {
		a.log.Debug().Err(err).Msg("could not cache detected location")
	}
	a.log.Info().Str("location", loc.Label()).Msg("detected location")
	return loc, nil
}

func (a *app) fetcher() *fetcher.Fetcher {
	var recorder fetcher.Recorder
	if a.history != nil {
		recorder = a.history
	}
	return fetcher.New(a.store, a.source(), recorder, a.log)
}

func (a *app) weather() *weather.Fetcher {
	var provider weather.Provider
	if a.cfg.WeatherAPIKey != "" {
		provider = weather.NewClient(a.cfg.WeatherAPIKey)
	} else {
		a.log.Debug().Msg("no weather API key configured")
	}
	return weather.NewFetcher(a.store, provider, a.cfg.WeatherCity, a.log)
}

// sink returns the alarm sound: the configured player, or the terminal bell.
func (a *app) sink() alarm.Sink {
	if a.cfg.AlarmCommand == "" {
		return alarm.Bell{W: os.Stdout}
	}
	cmd, err := alarm.NewCommand(a.cfg.AlarmCommand, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("invalid alarm command, using the terminal bell")
		return alarm.Bell{W: os.Stdout}
	}
	return cmd
}

// location describes where the times are for.
func (a *app) location() string {
	switch {
	case a.cfg.Source != config.SourceAlAdhan:
		return a.cfg.WeatherCity
	case a.cfg.City != "" && a.cfg.Country != "":
		return a.cfg.City + ", " + a.cfg.Country
	case a.cfg.Latitude != 0 || a.cfg.Longitude != 0:
		return fmt.Sprintf("%.4f, %.4f", a.cfg.Latitude, a.cfg.Longitude)
	default:
		return a.store.LoadGeo().Label()
	}
}
