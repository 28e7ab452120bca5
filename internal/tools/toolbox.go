package tools

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/agentmate/internal/utils"
)

// Toolbox owns one instance of every handler the default router dispatches to.
type Toolbox struct {
	Locator    *Locator
	Clock      *Clock
	Weather    *Weather
	AirQuality *AirQuality
	Calculator *Calculator
}

func NewToolbox(cfg utils.ToolsConfig, logger *zap.SugaredLogger) (*Toolbox, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	geoHTTP := resty.New().SetTimeout(cfg.GeoIPTimeout)
	locator := NewLocator(geoHTTP, cfg.GeoIPURL, cfg.FallbackCity, logger)

	owmHTTP := resty.New().
		SetBaseURL(cfg.OpenWeatherBaseURL).
		SetTimeout(cfg.OpenWeatherTimeout)
	air, err := NewAirQuality(owmHTTP, cfg.OpenWeatherAPIKey, locator, cfg.GeocodeCacheSize, logger)
	if err != nil {
		return nil, err
	}

	return &Toolbox{
		Locator:    locator,
		Clock:      NewClock(time.Now),
		Weather:    NewWeather(locator, nil),
		AirQuality: air,
		Calculator: &Calculator{},
	}, nil
}

// NewDefaultRouter wires tb into the standard rule order.
func NewDefaultRouter(tb *Toolbox) *Router {
	return NewRouter(DefaultRules(tb)...)
}
