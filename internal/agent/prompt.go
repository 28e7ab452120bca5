package agent

import "strings"

const (
	personaPreamble = "You are a friendly AI assistant having a casual, helpful chat with the user.\n" +
		"Here's the recent conversation:\n"
	summaryInstruction = "Summarize the key facts from this conversation:\n\n"
	summaryTurnPrefix  = "Summary so far: "

	// CompletionErrorReply is returned when the completion service fails.
	CompletionErrorReply = "There was an issue generating my response. Please try again."
	// EmptyCompletionReply is returned when the service answers with nothing.
	EmptyCompletionReply = "I'm here, but I couldn't generate a proper reply right now."
)

// BuildPrompt frames the rendered history and the new message for the model.
func BuildPrompt(rendered, message string) string {
	var b strings.Builder
	b.WriteString(personaPreamble)
	b.WriteString("\n")
	b.WriteString(rendered)
	b.WriteString("\nUser: ")
	b.WriteString(message)
	b.WriteString("\nAssistant:")
	return b.String()
}

func buildSummaryPrompt(rendered string) string {
	return summaryInstruction + rendered
}
