// Package scrape reads today's prayer times from a prayer-timings web page.
package scrape

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

const (
	// DefaultURL is the page for Mostaganem, Algeria.
	DefaultURL = "https://www.urdupoint.com/islam/mostaganem-prayer-timings.html"

	// DefaultUserAgent mimics a desktop browser; the site rejects bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	tableSelector = "table.ptm_table"
)

var (
	// ErrTableNotFound is returned when the page has no prayer table.
	ErrTableNotFound = errors.New("prayer table not found")
	// ErrMissingLabel is returned when a prayer cell is absent from the first row.
	ErrMissingLabel = errors.New("prayer cell not found")
)

// Scraper fetches the page and extracts the first row of the prayer table.
type Scraper struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	log     zerolog.Logger
	circuit *gobreaker.CircuitBreaker
}

// New returns a Scraper for url. An empty url selects DefaultURL.
func New(url string, log zerolog.Logger) *Scraper {
	if url == "" {
		url = DefaultURL
	}
	return &Scraper{
		URL:       url,
		UserAgent: DefaultUserAgent,
		Timeout:   15 * time.Second,
		log:       log.With().Str("module", "scrape").Logger(),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "scrape",
			MaxRequests: 1,
			Interval:    time.Hour,
			Timeout:     5 * time.Minute,
		}),
	}
}

// Fetch returns today's schedule as published on the page. The page always
// shows the current day, so date is only used for logging.
func (s *Scraper) Fetch(ctx context.Context, date time.Time) (prayer.Schedule, error) {
	result, err := s.circuit.Execute(func() (interface{}, error) {
		return s.visit(ctx)
	})
	if err != nil {
		return nil, err
	}

	sched := result.(prayer.Schedule)
	s.log.Debug().Str("date", date.Format("2006-01-02")).Str("url", s.URL).Msg("scraped prayer times")
	return sched, nil
}

func (s *Scraper) visit(ctx context.Context) (prayer.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cc := colly.NewCollector(
		colly.UserAgent(s.UserAgent),
		colly.AllowURLRevisit(),
	)
	cc.SetRequestTimeout(s.Timeout)
	cc.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		sched    prayer.Schedule
		parseErr error
		found    bool
	)

	cc.OnRequest(func(r *colly.Request) {
		s.log.Debug().Str("url", r.URL.String()).Msg("visiting")
	})

	cc.OnHTML(tableSelector, func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		sched, parseErr = parseRow(e.DOM.Find("tbody tr").First())
	})

	if err := cc.Visit(s.URL); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", s.URL)
	}
	if !found {
		return nil, ErrTableNotFound
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return sched, nil
}

// parseRow reads td[data-label=<Name>] for every tracked prayer.
func parseRow(row *goquery.Selection) (prayer.Schedule, error) {
	if row.Length() == 0 {
		return nil, errors.Wrap(ErrTableNotFound, "table has no body rows")
	}

	sched := make(prayer.Schedule, len(prayer.Names))
	for _, name := range prayer.Names {
		cell := row.Find(`td[data-label="` + name + `"]`).First()
		if cell.Length() == 0 {
			return nil, errors.Wrap(ErrMissingLabel, name)
		}

		entry, err := prayer.NewEntry12h(strings.TrimSpace(cell.Text()))
		if err != nil {
			return nil, errors.Wrapf(err, "cell %s", name)
		}
		sched[name] = entry
	}
	return sched, nil
}

// contextTransport binds every request of a collector to ctx, since colly
// has no context-aware Visit.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}
