// Package agent answers chat messages: deterministic tools first, then the
// language model over the user's recent history, compacting that history
// into a summary once it grows too long.
package agent

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/tools"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

// SourceModel marks replies produced by the completion service.
const SourceModel = "model"

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ToolRouter interface {
	Route(ctx context.Context, message string) (tools.Result, bool)
}

type Reply struct {
	Text   string       `json:"reply"`
	Status tools.Status `json:"status"`
	Source string       `json:"source"`
}

type Options struct {
	ShortTermLimit     int
	SummarizeThreshold int
	// PersistToolTriggers also stores the user message that a tool answered.
	PersistToolTriggers bool
}

func OptionsFromConfig(cfg utils.MemoryConfig) Options {
	return Options{
		ShortTermLimit:      cfg.ShortTermLimit,
		SummarizeThreshold:  cfg.SummarizeThreshold,
		PersistToolTriggers: cfg.PersistToolTriggers,
	}
}

type Agent struct {
	log       db.MessageLog
	router    ToolRouter
	llm       Completer
	assembler *Assembler
	opts      Options
	logger    *zap.SugaredLogger
}

func New(log db.MessageLog, router ToolRouter, llm Completer, opts Options, logger *zap.SugaredLogger) *Agent {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Agent{
		log:       log,
		router:    router,
		llm:       llm,
		assembler: NewAssembler(log, opts.ShortTermLimit, opts.SummarizeThreshold),
		opts:      opts,
		logger:    logger,
	}
}

// Reply produces an answer for message. Failures downstream are logged and
// surface as fallback text, never as an error.
func (a *Agent) Reply(ctx context.Context, userID, message string) Reply {
	if result, ok := a.router.Route(ctx, message); ok {
		if a.opts.PersistToolTriggers {
			a.persist(ctx, userID, models.RoleUser, message)
		}
		a.persist(ctx, userID, models.RoleAssistant, result.Text)
		return Reply{Text: result.Text, Status: result.Status, Source: result.Tool}
	}

	convo, err := a.assembler.Assemble(ctx, userID, message)
	if err != nil {
		// keep whatever was read; compaction needs a trustworthy count
		a.logger.Warnf("load history for %s failed: %v", userID, err)
		convo.ShouldCompact = false
	}

	if convo.ShouldCompact {
		convo = a.compact(ctx, userID, convo)
	}

	reply := a.complete(ctx, convo.Prompt())

	a.persist(ctx, userID, models.RoleUser, message)
	a.persist(ctx, userID, models.RoleAssistant, reply.Text)

	return reply
}

// Clear drops every stored turn of the user.
func (a *Agent) Clear(ctx context.Context, userID string) error {
	return a.log.Clear(ctx, userID)
}

func (a *Agent) complete(ctx context.Context, prompt string) Reply {
	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("completion timed out: %v", err)
		} else {
			a.logger.Errorf("completion failed: %v", err)
		}
		return Reply{Text: CompletionErrorReply, Status: tools.StatusFailed, Source: SourceModel}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: EmptyCompletionReply, Status: tools.StatusDegraded, Source: SourceModel}
	}
	return Reply{Text: text, Status: tools.StatusOK, Source: SourceModel}
}

// compact replaces the stored history with a model-written summary. On any
// failure the original context is returned untouched.
func (a *Agent) compact(ctx context.Context, userID string, convo Context) Context {
	summary, err := a.llm.Complete(ctx, buildSummaryPrompt(convo.Render()))
	if err != nil {
		a.logger.Warnf("summarization for %s failed: %v", userID, err)
		return convo
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		a.logger.Warnf("summarization for %s returned nothing", userID)
		return convo
	}

	content := summaryTurnPrefix + summary
	if err := a.log.Compact(ctx, userID, models.NewTurn(userID, models.RoleSystem, content)); err != nil {
		a.logger.Warnf("store summary for %s failed: %v", userID, err)
		return convo
	}

	a.logger.Infof("compacted %d turns for %s", convo.Total, userID)
	return Context{Message: convo.Message, Summary: []string{content}, Total: 1}
}

func (a *Agent) persist(ctx context.Context, userID string, role models.Role, content string) {
	if err := a.log.Append(ctx, models.NewTurn(userID, role, content)); err != nil {
		a.logger.Warnf("persist %s turn for %s failed: %v", role, userID, err)
	}
}
