package api

import (
	"context"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-widget/internal/geo"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

// Source turns Al Adhan timings into a prayer.Schedule.
//
// The city/country pair wins over coordinates. When neither is set the
// location comes from Locate.
type Source struct {
	Client    *Client
	City      string
	Country   string
	Latitude  float64
	Longitude float64
	Method    int
	School    int

	// Locate resolves the location when none is configured.
	// Defaults to geo.DetectLocation.
	Locate func(ctx context.Context) (*geo.Location, error)
}

// Fetch fetches date's timings and converts them to a schedule.
func (s *Source) Fetch(ctx context.Context, date time.Time) (prayer.Schedule, error) {
	client := s.Client
	if client == nil {
		client = NewClient()
	}

	var (
		resp *Response
		err  error
	)
	switch {
	case s.City != "" && s.Country != "":
		resp, err = client.FetchByCity(ctx, date, s.City, s.Country, s.Method, s.School)
	case s.Latitude != 0 || s.Longitude != 0:
		resp, err = client.FetchByCoordinates(ctx, date, s.Latitude, s.Longitude, s.Method, s.School)
	default:
		locate := s.Locate
		if locate == nil {
			locate = geo.DetectLocation
		}
		loc, lerr := locate(ctx)
		if lerr != nil {
			return nil, fmt.Errorf("no location configured and detection failed: %w", lerr)
		}
		resp, err = client.FetchByCoordinates(ctx, date, loc.Latitude, loc.Longitude, s.Method, s.School)
	}
	if err != nil {
		return nil, err
	}

	return ToSchedule(resp.Data.Timings)
}

// ToSchedule converts the six tracked timings to schedule entries.
func ToSchedule(t Timings) (prayer.Schedule, error) {
	sched := make(prayer.Schedule, len(prayer.Names))
	for _, name := range prayer.Names {
		entry, err := prayer.NewEntry24h(t.ByName(name))
		if err != nil {
			return nil, fmt.Errorf("timing %s: %w", name, err)
		}
		sched[name] = entry
	}
	return sched, nil
}
