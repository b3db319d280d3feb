// Package weather provides the current outside temperature, cached
// alongside the prayer times.
package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-widget/internal/cache"
)

// DefaultCity is the location the temperature is reported for.
const DefaultCity = "Mostaganem"

const kelvinOffset = 273.15

// Temperature is a reading in Celsius. Available is false when no reading
// could be obtained.
type Temperature struct {
	Celsius   float64
	Available bool
}

// String renders "23°C" (rounded) or "N/A".
func (t Temperature) String() string {
	if !t.Available {
		return "N/A"
	}
	return fmt.Sprintf("%d°C", int(math.Round(t.Celsius)))
}

// Store is the persisted temperature cache.
type Store interface {
	Temperature() (cache.Temperature, bool)
	SaveTemperature(celsius float64, at time.Time) error
}

// Provider returns a temperature in Kelvin.
type Provider interface {
	Kelvin(ctx context.Context, city string) (float64, error)
}

type Fetcher struct {
	store    Store
	provider Provider
	city     string
	now      func() time.Time
	log      zerolog.Logger
}

// NewFetcher builds a Fetcher for city. An empty city selects DefaultCity.
func NewFetcher(store Store, provider Provider, city string, log zerolog.Logger) *Fetcher {
	if city == "" {
		city = DefaultCity
	}
	return &Fetcher{
		store:    store,
		provider: provider,
		city:     city,
		now:      time.Now,
		log:      log.With().Str("module", "weather").Logger(),
	}
}

// Current returns the cached temperature if there is one, whatever its age.
// Otherwise it asks the provider and caches the result.
func (f *Fetcher) Current(ctx context.Context) Temperature {
	if cached, ok := f.store.Temperature(); ok {
		if v, ok := cached.Celsius(); ok {
			return Temperature{Celsius: v, Available: true}
		}
	}
	return f.Refresh(ctx)
}

// Refresh always asks the provider.
func (f *Fetcher) Refresh(ctx context.Context) Temperature {
	if f.provider == nil {
		return Temperature{}
	}

	kelvin, err := f.provider.Kelvin(ctx, f.city)
	if err != nil {
		f.log.Warn().Err(err).Str("city", f.city).Msg("could not fetch temperature")
		return Temperature{}
	}

	celsius := kelvin - kelvinOffset
	if err := f.store.SaveTemperature(celsius, f.now()); err != nil {
		f.log.Error().Err(err).Msg("could not save temperature")
	}

	f.log.Debug().Float64("celsius", celsius).Str("city", f.city).Msg("fetched temperature")
	return Temperature{Celsius: celsius, Available: true}
}
