package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
)

var defaultIntN = rand.IntN

var conditions = []string{"Sunny", "Cloudy", "Rainy", "Windy"}

// Weather produces placeholder conditions; it does not call a weather API.
type Weather struct {
	locator *Locator
	intn    func(n int) int
}

func NewWeather(locator *Locator, intn func(int) int) *Weather {
	if intn == nil {
		intn = defaultIntN
	}
	return &Weather{locator: locator, intn: intn}
}

func (w *Weather) Handle(ctx context.Context, message string) Result {
	city, usedFallback := w.locator.Resolve(ctx, message)

	condition := conditions[w.intn(len(conditions))]
	temp := 20 + w.intn(16)

	status := StatusOK
	if usedFallback {
		status = StatusDegraded
	}

	return Result{
		Tool:   ToolWeather,
		Text:   fmt.Sprintf("The weather in %s is %s with %d°C.", city, condition, temp),
		Status: status,
	}
}
