// Package fetcher resolves the prayer schedule of a date: the local cache
// first, then the network source, then the most recent cached day.
package fetcher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-widget/internal/cache"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

// Origin tells where a schedule came from.
type Origin int

const (
	Empty Origin = iota
	Cache
	Network
	Fallback
)

func (o Origin) String() string {
	switch o {
	case Cache:
		return "cache"
	case Network:
		return "network"
	case Fallback:
		return "fallback"
	default:
		return "empty"
	}
}

// ErrInvalidSchedule is returned when a source yields something other than
// the six tracked prayers with parseable times.
var ErrInvalidSchedule = errors.New("incomplete or malformed schedule")

// Store is the persisted schedule cache.
type Store interface {
	Today(date time.Time) (prayer.Schedule, bool)
	Latest() (string, prayer.Schedule, bool)
	SaveSchedule(date time.Time, sched prayer.Schedule) error
}

// Source fetches a schedule over the network.
type Source interface {
	Fetch(ctx context.Context, date time.Time) (prayer.Schedule, error)
}

// Recorder keeps a copy of every resolved schedule.
type Recorder interface {
	RecordSchedule(ctx context.Context, date time.Time, sched prayer.Schedule, origin string) error
}

// Result is the outcome of a fetch. Schedule is empty when Origin is Empty.
type Result struct {
	Date     string
	Schedule prayer.Schedule
	Origin   Origin
}

type Fetcher struct {
	store    Store
	source   Source
	recorder Recorder
	log      zerolog.Logger
}

// New builds a Fetcher. recorder may be nil.
func New(store Store, source Source, recorder Recorder, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		store:    store,
		source:   source,
		recorder: recorder,
		log:      log.With().Str("module", "fetcher").Logger(),
	}
}

// Fetch returns date's schedule. It never fails: when neither the cache nor
// the network can serve date, it returns the most recent cached day, or an
// empty schedule.
func (f *Fetcher) Fetch(ctx context.Context, date time.Time) Result {
	if sched, ok := f.store.Today(date); ok {
		return Result{Date: date.Format(cache.DateLayout), Schedule: sched, Origin: Cache}
	}
	return f.Refresh(ctx, date)
}

// Refresh is Fetch without the cache lookup.
func (f *Fetcher) Refresh(ctx context.Context, date time.Time) Result {
	day := date.Format(cache.DateLayout)

	sched, err := f.fetchSource(ctx, date)
	if err != nil {
		f.log.Warn().Err(err).Str("date", day).Msg("could not fetch prayer times, using cached data")
		return f.fallback()
	}

	if err := f.store.SaveSchedule(date, sched); err != nil {
		f.log.Error().Err(err).Str("date", day).Msg("could not save prayer times")
	}
	if f.recorder != nil {
		if err := f.recorder.RecordSchedule(ctx, date, sched, Network.String()); err != nil {
			f.log.Warn().Err(err).Str("date", day).Msg("could not record schedule history")
		}
	}

	f.log.Info().Str("date", day).Msg("fetched prayer times")
	return Result{Date: day, Schedule: sched, Origin: Network}
}

func (f *Fetcher) fetchSource(ctx context.Context, date time.Time) (prayer.Schedule, error) {
	if f.source == nil {
		return nil, errors.New("no prayer time source configured")
	}

	sched, err := f.source.Fetch(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "source fetch failed")
	}
	if !sched.Valid() {
		return nil, ErrInvalidSchedule
	}
	return sched, nil
}

func (f *Fetcher) fallback() Result {
	day, sched, ok := f.store.Latest()
	if !ok {
		f.log.Warn().Msg("no cached prayer times available")
		return Result{Schedule: prayer.Schedule{}, Origin: Empty}
	}
	return Result{Date: day, Schedule: sched, Origin: Fallback}
}
