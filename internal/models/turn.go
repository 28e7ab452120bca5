package models

import (
	"fmt"
	"strings"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole normalises a stored or user supplied role name.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	case RoleSystem:
		return RoleSystem, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Label is the transcript prefix for the role, e.g. "User".
func (r Role) Label() string {
	s := string(r)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Turn is one stored message. ID is assigned by the log and grows with
// insertion order for a given backend.
type Turn struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn stamps a turn with the current UTC time.
func NewTurn(userID string, role Role, content string) Turn {
	return Turn{
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
