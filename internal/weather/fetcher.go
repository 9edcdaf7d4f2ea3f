// Package weather fetches the current conditions once per wake cycle and
// reduces the result to a tagged outcome: a validated reading, a transport
// failure, or a parse failure. The orchestrator never retries within a
// cycle; a failed fetch simply selects a fallback render path.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Reading is one validated set of current conditions. It is the only value
// ever written to the persistent store, so it is never built from a
// partially parsed document.
type Reading struct {
	TempF       float64
	HumidityPct int
	Icon        Icon
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNetworkFailure
	OutcomeParseFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNetworkFailure:
		return "network-failure"
	case OutcomeParseFailure:
		return "parse-failure"
	default:
		return "INVALID"
	}
}

// Outcome is the tagged result of one fetch. Exactly one variant holds:
// Reading is meaningful only for OutcomeSuccess, Code only for
// OutcomeNetworkFailure (0 when the transport itself failed).
type Outcome struct {
	Kind    OutcomeKind
	Reading Reading
	Code    int
}

// Getter is the narrow surface consumed from the HTTP transport.
type Getter interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// HTTPGetter implements Getter on net/http.
type HTTPGetter struct {
	Client *http.Client
}

func (g *HTTPGetter) Get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

type Fetcher struct {
	get Getter
	url string
	log *slog.Logger
}

func NewFetcher(get Getter, endpointURL string, log *slog.Logger) *Fetcher {
	return &Fetcher{get: get, url: endpointURL, log: log}
}

// EndpointURL builds the current-conditions query for the configured city,
// key and unit system.
func EndpointURL(baseURL, city, apiKey, units string) string {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", apiKey)
	values.Set("units", units)
	return fmt.Sprintf("%s?%s", baseURL, values.Encode())
}

// document is the fixed shape consumed from the endpoint.
type document struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Icon string `json:"icon"`
	} `json:"weather"`
}

// Fetch issues exactly one request and classifies the result. Non-2xx
// status or transport errors yield a network failure; a body that does not
// carry the expected fields yields a parse failure.
func (f *Fetcher) Fetch(ctx context.Context) Outcome {
	status, body, err := f.get.Get(ctx, f.url)
	if err != nil {
		f.log.Warn("weather request failed", "error", err)
		return Outcome{Kind: OutcomeNetworkFailure, Code: status}
	}
	if status < 200 || status >= 300 {
		f.log.Warn("weather request rejected", "status", status)
		return Outcome{Kind: OutcomeNetworkFailure, Code: status}
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		f.log.Warn("weather body is not valid JSON", "error", err)
		return Outcome{Kind: OutcomeParseFailure}
	}
	if doc.Main == nil || doc.Main.Temp == nil || doc.Main.Humidity == nil || len(doc.Weather) == 0 {
		f.log.Warn("weather body is missing expected fields")
		return Outcome{Kind: OutcomeParseFailure}
	}

	reading := Reading{
		TempF:       *doc.Main.Temp,
		HumidityPct: *doc.Main.Humidity,
		Icon:        IconForCode(doc.Weather[0].Icon),
	}
	f.log.Info("weather fetched",
		"temp", reading.TempF,
		"humidity", reading.HumidityPct,
		"icon", reading.Icon.String(),
	)
	return Outcome{Kind: OutcomeSuccess, Reading: reading}
}
