package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var cityPattern = regexp.MustCompile(`(?i)\bin\s+([A-Za-z][A-Za-z\s]*)`)

var errNoCity = errors.New("geoip: response has no city")

// ExtractCity pulls the words after "in" out of messages like
// "weather in Paris?". It returns "" when there is nothing to extract.
func ExtractCity(message string) string {
	match := cityPattern.FindStringSubmatch(message)
	if match == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(match[1]), "?.,")
}

// Locator resolves the city a weather or air quality question is about.
type Locator struct {
	http     *resty.Client
	url      string
	fallback string
	logger   *zap.SugaredLogger
}

func NewLocator(http *resty.Client, url, fallback string, logger *zap.SugaredLogger) *Locator {
	if fallback == "" {
		fallback = "Bengaluru"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Locator{http: http, url: url, fallback: fallback, logger: logger}
}

// Resolve prefers a city named in the message, then the caller's network
// location, then the fallback city. usedFallback reports the last case.
func (l *Locator) Resolve(ctx context.Context, message string) (city string, usedFallback bool) {
	if city := ExtractCity(message); city != "" {
		return city, false
	}

	city, err := l.lookup(ctx)
	if err != nil {
		l.logger.Warnf("ip based city detection failed: %v", err)
		return l.fallback, true
	}
	return city, false
}

func (l *Locator) lookup(ctx context.Context) (string, error) {
	if strings.TrimSpace(l.url) == "" {
		return "", errors.New("geoip: lookup url not configured")
	}

	var payload struct {
		City string `json:"city"`
	}
	resp, err := l.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&payload).
		Get(l.url)
	if err != nil {
		return "", fmt.Errorf("geoip: request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("geoip: unexpected status %d", resp.StatusCode())
	}

	city := strings.TrimSpace(payload.City)
	if city == "" {
		return "", errNoCity
	}
	return city, nil
}
