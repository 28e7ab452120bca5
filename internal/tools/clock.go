package tools

import (
	"context"
	"time"
)

const clockLayout = "Monday, January 02, 2006 03:04 PM"

type Clock struct {
	now func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Handle(_ context.Context, _ string) Result {
	return Result{Tool: ToolClock, Text: c.now().Format(clockLayout), Status: StatusOK}
}
