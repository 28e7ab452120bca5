// Package tools implements the deterministic handlers the assistant answers
// with before falling back to the language model, and the keyword router that
// picks between them.
package tools

// Status grades a tool answer. Every Result carries user-facing text; the
// status only says how much to trust it.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

type Result struct {
	Tool   string `json:"tool"`
	Text   string `json:"text"`
	Status Status `json:"status"`
}
