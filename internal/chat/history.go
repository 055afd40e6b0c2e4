package chat

import "github.com/skydocs/skydocs/internal/llm"

// foldHistory converts conversation turns into a structured message
// history seeded with the given system prompt. Both pipeline stages use
// this one builder; they differ only in the system prompt and in the
// user message appended afterwards.
//
// When includeLast is false the final (still-unanswered) turn is left
// out, since its question is injected separately in template-rendered
// form. Turns with an empty Assistant contribute only their user
// message, so an unanswered historical turn never produces an empty
// assistant entry.
func foldHistory(system string, turns []Turn, includeLast bool) []llm.Message {
	n := len(turns)
	if !includeLast && n > 0 {
		n--
	}

	messages := make([]llm.Message, 0, 2*n+1)
	messages = append(messages, llm.SystemMessage(system))
	for _, turn := range turns[:n] {
		messages = append(messages, llm.UserMessage(turn.User))
		if turn.Assistant != "" {
			messages = append(messages, llm.AssistantMessage(turn.Assistant))
		}
	}
	return messages
}
