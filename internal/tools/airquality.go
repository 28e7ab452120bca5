package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

var (
	ErrMissingAPIKey    = errors.New("airquality: openweather api key not configured")
	ErrLocationNotFound = errors.New("airquality: location not found")
	ErrNoAQIData        = errors.New("airquality: no aqi data returned")
)

var aqiLabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AirQuality reports the OpenWeather air quality index for a city and falls
// back to a synthetic offline reading on any upstream problem.
type AirQuality struct {
	http    *resty.Client
	apiKey  string
	locator *Locator
	geocode *lru.Cache
	intn    func(int) int
	logger  *zap.SugaredLogger
}

func NewAirQuality(http *resty.Client, apiKey string, locator *Locator, cacheSize int, logger *zap.SugaredLogger) (*AirQuality, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("airquality: geocode cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AirQuality{
		http:    http,
		apiKey:  strings.TrimSpace(apiKey),
		locator: locator,
		geocode: cache,
		intn:    defaultIntN,
		logger:  logger,
	}, nil
}

func (a *AirQuality) Handle(ctx context.Context, message string) Result {
	city, _ := a.locator.Resolve(ctx, message)
	return a.Report(ctx, city)
}

// Report never fails; upstream errors turn into an offline reading.
func (a *AirQuality) Report(ctx context.Context, city string) Result {
	index, err := a.lookup(ctx, city)
	if err != nil {
		a.logger.Warnf("air quality lookup for %s failed, using offline reading: %v", city, err)
		return a.offline(city)
	}

	return Result{
		Tool:   ToolAirQuality,
		Text:   fmt.Sprintf("The Air Quality Index (AQI) in %s is %d (%s).", city, index, aqiLabels[index]),
		Status: StatusOK,
	}
}

func (a *AirQuality) offline(city string) Result {
	index := 50 + a.intn(151)
	label := "Unhealthy"
	if index < 100 {
		label = "Good"
	}
	return Result{
		Tool:   ToolAirQuality,
		Text:   fmt.Sprintf("[Offline mode] The Air Quality Index in %s is %d (%s).", city, index, label),
		Status: StatusDegraded,
	}
}

func (a *AirQuality) lookup(ctx context.Context, city string) (int, error) {
	if a.apiKey == "" {
		return 0, ErrMissingAPIKey
	}

	coords, err := a.coordinates(ctx, city)
	if err != nil {
		return 0, err
	}

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
		} `json:"list"`
	}
	err = a.getJSON(ctx, "/data/2.5/air_pollution", map[string]string{
		"lat":   strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(coords.Lon, 'f', -1, 64),
		"appid": a.apiKey,
	}, &payload)
	if err != nil {
		return 0, err
	}
	if len(payload.List) == 0 {
		return 0, ErrNoAQIData
	}

	index := payload.List[0].Main.AQI
	if _, ok := aqiLabels[index]; !ok {
		return 0, fmt.Errorf("airquality: unexpected aqi value %d", index)
	}
	return index, nil
}

func (a *AirQuality) coordinates(ctx context.Context, city string) (coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if cached, ok := a.geocode.Get(key); ok {
		return cached.(coordinates), nil
	}

	var matches []coordinates
	err := a.getJSON(ctx, "/geo/1.0/direct", map[string]string{
		"q":     city,
		"limit": "1",
		"appid": a.apiKey,
	}, &matches)
	if err != nil {
		return coordinates{}, err
	}
	if len(matches) == 0 {
		return coordinates{}, fmt.Errorf("%w: %s", ErrLocationNotFound, city)
	}

	a.geocode.Add(key, matches[0])
	return matches[0], nil
}

func (a *AirQuality) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("airquality: request %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("airquality: %s returned status %d", path, resp.StatusCode())
	}
	return nil
}
