package responder

import (
	"strings"

	"github.com/figmenta/copilot/internal/memory"
)

// DefaultSystemInstructions is used whenever no instructions have been
// configured or the config store is unreachable.
const DefaultSystemInstructions = `You are a helpful AI assistant for the Figmenta team.

Your role is to:
- Answer questions about projects and tasks
- Help with brainstorming and ideation
- Provide technical guidance when asked
- Be friendly and professional in all interactions

Guidelines:
- Keep responses concise unless asked for more detail
- Use markdown formatting when appropriate
- If you don't know something, say so honestly
- Reference previous conversation context when relevant`

// noContext substitutes for the context section of a prompt when the
// channel has no history yet.
const noContext = "No previous context."

// renderContext formats messages as "{author or role}: {content}"
// lines in chronological order.
func renderContext(msgs []memory.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		attribution := m.Author
		if attribution == "" {
			attribution = string(m.Role)
		}
		lines[i] = attribution + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// lastN returns the trailing n elements of msgs.
func lastN(msgs []memory.Message, n int) []memory.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// buildPrompt composes the single-turn generation prompt: system
// instructions, a labeled context section built from the most recent
// messages, the labeled current message, and the output size cap the
// gateway enforces.
func buildPrompt(instructions string, msgs []memory.Message, userName, userMessage string) string {
	contextBlock := renderContext(lastN(msgs, contextMessages))
	if contextBlock == "" {
		contextBlock = noContext
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nCONVERSATION CONTEXT:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nCURRENT MESSAGE FROM ")
	b.WriteString(userName)
	b.WriteString(":\n")
	b.WriteString(userMessage)
	b.WriteString("\n\nRespond naturally and helpfully. Keep your response under 2000 characters for Discord.")
	return b.String()
}

// summaryPrompt asks the model to condense recent conversation into a
// few sentences.
func summaryPrompt(recent string) string {
	var b strings.Builder
	b.WriteString("Summarize this conversation in 2-3 sentences, focusing on key topics and decisions:\n\n")
	b.WriteString(recent)
	b.WriteString("\n\nSummary:")
	return b.String()
}
