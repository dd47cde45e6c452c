// Package transcript defines conversation turns and their text rendering.
package transcript

import (
	"fmt"
	"strings"
)

// Roles used by the chat application.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Line renders a turn as "role: content".
func (t Turn) Line() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Content)
}

// Lines renders every turn in order.
func Lines(turns []Turn) []string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Line()
	}
	return lines
}

// Format joins the rendered turns with newlines.
func Format(turns []Turn) string {
	return strings.Join(Lines(turns), "\n")
}

// CountRole returns how many turns have the given role.
func CountRole(turns []Turn, role string) int {
	n := 0
	for _, t := range turns {
		if t.Role == role {
			n++
		}
	}
	return n
}
