package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	// ErrNoAPIKey is returned when no OpenWeather key is configured.
	ErrNoAPIKey     = errors.New("openweather api key is not configured")
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errMissingValue = errors.New("response has no main.temp")
)

// Backoff controls the retry delays of a Client.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client reads the current temperature from OpenWeather.
type Client struct {
	// BaseURL is exported so tests can point it at httptest.
	BaseURL string
	APIKey  string
	Backoff Backoff

	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		Backoff: Backoff{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// Kelvin returns the current temperature of city in Kelvin, the API's
// default unit.
func (c *Client) Kelvin(ctx context.Context, city string) (float64, error) {
	if c.APIKey == "" {
		return 0, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.APIKey)
	endpoint := c.BaseURL + "?" + params.Encode()

	resp, err := c.doWithResilience(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var payload struct {
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "failed to decode weather response")
	}
	if payload.Main.Temp == nil {
		return 0, errMissingValue
	}
	return *payload.Main.Temp, nil
}

// doWithResilience runs the request through the circuit breaker and retries
// transient failures with exponential backoff.
func (c *Client) doWithResilience(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, errors.Wrap(err, "failed to build weather request")
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, errServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		// 4xx other than 429 will not get better on retry.
		if errors.Is(err, errUnexpected) || attempt >= c.Backoff.MaxRetries {
			return nil, err
		}

		delay := c.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.Backoff.MaxInterval > 0 && delay > c.Backoff.MaxInterval {
			delay = c.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
