package llm

import (
	"fmt"
	"strings"
)

const assistantCue = "Assistant:"

// splitPreamble pulls every system message out of the sequence and merges
// them, in original order, into a single preamble. The remaining turns keep
// their relative order.
func splitPreamble(messages []Message) (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if content := strings.TrimSpace(m.Content); content != "" {
				system = append(system, content)
			}
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

// renderPrompt flattens a conversation into the single-prompt format:
// preamble first, then "<Role>: <content>" turns, then the assistant cue.
func renderPrompt(messages []Message) string {
	preamble, turns := splitPreamble(messages)

	var b strings.Builder
	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n\n")
	}
	for _, m := range turns {
		b.WriteString(roleLabel(m.Role))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(m.Content))
		b.WriteString("\n\n")
	}
	b.WriteString(assistantCue)
	return b.String()
}

func roleLabel(role Role) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// checkMessages enforces the submission invariants: known roles and at least
// one user turn.
func checkMessages(messages []Message) error {
	hasUser := false
	for i, m := range messages {
		switch m.Role {
		case RoleUser:
			hasUser = true
		case RoleSystem, RoleAssistant:
		default:
			return &BackendError{Kind: KindInvalidRequest, Message: fmt.Sprintf("message %d has unknown role %q", i, m.Role)}
		}
	}
	if !hasUser {
		return &BackendError{Kind: KindInvalidRequest, Message: ErrNoUserMessage.Error(), Err: ErrNoUserMessage}
	}
	return nil
}
