// Package weather implements the narrow HTTP client behind
// engine.WeatherFetcher: fetch a watering-percentage scale for the
// configured location, per spec.md §4.11 and
// original_source/src/utils.cpp's weather-check sequence.
package weather

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sprinklerd/sprinklerd/controller"
)

// Client fetches a watering-percentage scale from a configured endpoint.
type Client struct {
	baseURL  func() string // re-read on every fetch, StringOptions may change
	location func() string
	opts     func() string
	http     *http.Client
}

// New returns a Client reading its endpoint, location, and opts live from
// the supplied accessors, so a StringOptions update takes effect on the
// next fetch without reconstructing the client.
func New(baseURL, location, opts func() string) *Client {
	return &Client{baseURL: baseURL, location: location, opts: opts, http: &http.Client{Timeout: 10 * time.Second}}
}

type scaleResponse struct {
	Scale *uint16 `json:"scale"`
}

// FetchPercent implements engine.WeatherFetcher. It GETs
// "<base>?loc=<url-encoded location>&wto=<opts>" and parses a "scale"
// percentage from the JSON body.
func (c *Client) FetchPercent() (uint16, error) {
	base := c.baseURL()
	if base == "" {
		return 0, fmt.Errorf("weather: %s: no endpoint configured", controller.HTTPResultConnectError)
	}
	q := url.Values{}
	q.Set("loc", c.location())
	q.Set("wto", c.opts())

	full := base
	if !hasQuery(base) {
		full += "?" + q.Encode()
	} else {
		full += "&" + q.Encode()
	}

	resp, err := c.http.Get(full)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, fmt.Errorf("weather: %s: %w", controller.HTTPResultTimeout, err)
		}
		return 0, fmt.Errorf("weather: %s: %w", controller.HTTPResultConnectError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather: %s: status %d", controller.HTTPResultNotReceived, resp.StatusCode)
	}

	var body scaleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("weather: %s: %w", controller.HTTPResultEmptyReturn, err)
	}
	if body.Scale == nil {
		return 0, fmt.Errorf("weather: %s", controller.HTTPResultEmptyReturn)
	}
	return *body.Scale, nil
}

func hasQuery(raw string) bool {
	for _, c := range raw {
		if c == '?' {
			return true
		}
	}
	return false
}
