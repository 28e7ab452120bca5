package tools

import (
	"context"
	"strings"
)

const (
	ToolWeather    = "weather"
	ToolAirQuality = "air_quality"
	ToolClock      = "clock"
	ToolCalculator = "calculator"
)

// Handler answers a message the rule matched. It receives the original,
// un-normalised message.
type Handler func(ctx context.Context, message string) Result

// Rule pairs a predicate over the lowercased, trimmed message with a handler.
type Rule struct {
	Name   string
	Match  func(normalized string) bool
	Handle Handler
}

// Router evaluates rules in order; the first match wins.
type Router struct {
	rules []Rule
}

func NewRouter(rules ...Rule) *Router {
	return &Router{rules: append([]Rule(nil), rules...)}
}

// Route returns the matching tool's answer, or false when no rule applies.
func (r *Router) Route(ctx context.Context, message string) (Result, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, rule := range r.rules {
		if rule.Match == nil || !rule.Match(normalized) {
			continue
		}
		result := rule.Handle(ctx, message)
		if result.Tool == "" {
			result.Tool = rule.Name
		}
		if result.Status == "" {
			result.Status = StatusOK
		}
		return result, true
	}
	return Result{}, false
}

// Names lists the rules in evaluation order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	return names
}

// ContainsAny matches when the normalized message contains any of needles.
func ContainsAny(needles ...string) func(string) bool {
	return func(normalized string) bool {
		for _, needle := range needles {
			if strings.Contains(normalized, needle) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the fixed priority order: weather, air quality, clock,
// calculator.
func DefaultRules(tb *Toolbox) []Rule {
	return []Rule{
		{Name: ToolWeather, Match: ContainsAny("weather"), Handle: tb.Weather.Handle},
		{Name: ToolAirQuality, Match: ContainsAny("aqi", "air quality"), Handle: tb.AirQuality.Handle},
		{Name: ToolClock, Match: ContainsAny("time", "date"), Handle: tb.Clock.Handle},
		{Name: ToolCalculator, Match: ContainsAny("+", "-", "*", "/", "sqrt"), Handle: tb.Calculator.Handle},
	}
}
