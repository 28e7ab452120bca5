package tools

import (
	"context"
	"testing"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

func newOfflineToolbox(t *testing.T) *Toolbox {
	t.Helper()

	logger := zap.NewNop().Sugar()
	locator := NewLocator(resty.New(), "", "Bengaluru", logger)
	air, err := NewAirQuality(resty.New(), "", locator, 8, logger)
	if err != nil {
		t.Fatalf("failed to create air quality tool: %v", err)
	}
	air.intn = func(int) int { return 10 }

	return &Toolbox{
		Locator:    locator,
		Clock:      NewClock(nil),
		Weather:    NewWeather(locator, func(int) int { return 0 }),
		AirQuality: air,
		Calculator: &Calculator{},
	}
}

func TestDefaultRouterPriority(t *testing.T) {
	router := NewDefaultRouter(newOfflineToolbox(t))

	cases := []struct {
		message string
		tool    string
	}{
		{"What's the weather in Paris?", ToolWeather},
		{"weather and air quality in Rome", ToolWeather},
		{"AQI right now", ToolAirQuality},
		{"air quality time", ToolAirQuality},
		{"what TIME is it", ToolClock},
		{"what's today's date", ToolClock},
		{"2+3*2", ToolCalculator},
		{"sqrt 16", ToolCalculator},
	}

	for _, tc := range cases {
		result, ok := router.Route(context.Background(), tc.message)
		if !ok {
			t.Fatalf("expected %q to match a tool", tc.message)
		}
		if result.Tool != tc.tool {
			t.Fatalf("expected %q to route to %s, got %s", tc.message, tc.tool, result.Tool)
		}
		if result.Text == "" {
			t.Fatalf("expected non-empty text for %q", tc.message)
		}
	}
}

func TestRouterNoMatch(t *testing.T) {
	router := NewDefaultRouter(newOfflineToolbox(t))

	if _, ok := router.Route(context.Background(), "Hello there!"); ok {
		t.Fatalf("expected greeting to fall through to the model")
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	var calls []string
	handler := func(name string) Handler {
		return func(_ context.Context, _ string) Result {
			calls = append(calls, name)
			return Result{Text: name}
		}
	}

	router := NewRouter(
		Rule{Name: "first", Match: ContainsAny("foo"), Handle: handler("first")},
		Rule{Name: "second", Match: ContainsAny("foo", "bar"), Handle: handler("second")},
	)

	result, ok := router.Route(context.Background(), "  FOO bar ")
	if !ok {
		t.Fatalf("expected a match")
	}
	if result.Tool != "first" || result.Status != StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("expected only the first handler to run, got %v", calls)
	}

	if got := router.Names(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected rule names: %v", got)
	}
}
