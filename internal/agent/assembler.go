package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/wuwenbin0122/agentmate/internal/models"
)

const (
	DefaultShortTermLimit     = 10
	DefaultSummarizeThreshold = 20
)

// HistoryReader is the read side of the message log.
type HistoryReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error)
	Count(ctx context.Context, userID string) (int, error)
}

// Context is the material the model prompt is built from.
type Context struct {
	Message string
	// Lines holds "User: ..." and "Assistant: ..." entries, oldest first.
	Lines      []string
	Transcript string
	// Summary holds the content of system turns inside the window.
	Summary       []string
	ShouldCompact bool
	Total         int
}

// Render lays out summaries ahead of the transcript, one entry per line.
func (c Context) Render() string {
	var b strings.Builder
	for _, s := range c.Summary {
		b.WriteString(models.RoleSystem.Label())
		b.WriteString(": ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	for _, line := range c.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (c Context) Prompt() string {
	return BuildPrompt(c.Render(), c.Message)
}

type Assembler struct {
	history   HistoryReader
	limit     int
	threshold int
}

func NewAssembler(history HistoryReader, limit, threshold int) *Assembler {
	if limit <= 0 {
		limit = DefaultShortTermLimit
	}
	if threshold <= 0 {
		threshold = DefaultSummarizeThreshold
	}
	return &Assembler{history: history, limit: limit, threshold: threshold}
}

// Assemble reads the user's most recent turns and decides whether the stored
// history has grown past the compaction threshold.
func (a *Assembler) Assemble(ctx context.Context, userID, message string) (Context, error) {
	out := Context{Message: message}

	turns, err := a.history.Recent(ctx, userID, a.limit)
	if err != nil {
		return out, fmt.Errorf("assemble: recent turns: %w", err)
	}

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser, models.RoleAssistant:
			out.Lines = append(out.Lines, turn.Role.Label()+": "+turn.Content)
		case models.RoleSystem:
			out.Summary = append(out.Summary, turn.Content)
		}
	}
	out.Transcript = strings.Join(out.Lines, "\n")

	total, err := a.history.Count(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("assemble: count turns: %w", err)
	}
	out.Total = total
	out.ShouldCompact = total > a.threshold

	return out, nil
}
