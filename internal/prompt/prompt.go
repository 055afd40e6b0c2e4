// Package prompt holds the four prompt templates driving the two-stage
// pipeline and renders them against per-request variables. Rendering is
// pure templating: no I/O, no side effects.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Template names accepted by Render.
const (
	// SearchSystem seeds the intent-derivation history.
	SearchSystem = "search-system"

	// SearchUser is the final user turn of the intent-derivation call.
	SearchUser = "search-user"

	// ChatSystem seeds the answer-generation history.
	ChatSystem = "chat-system"

	// ChatUser is the final user turn of the answer-generation call,
	// carrying the question and the retrieved knowledge.
	ChatUser = "chat-user"
)

// Vars are the variables a template may reference. Unused fields are
// ignored by templates that do not need them.
type Vars struct {
	Question  string
	Knowledge string
}

const searchSystemText = `You are an assistant that converts aircraft maintenance and operation questions into search queries.
Generate a short search query that will find the manual passages needed to answer the user's question.
Consider the conversation so far when the question refers back to it.
Return only the query text, with no quotation marks and no explanation.`

const searchUserText = `Generate a search query for the following question.

Question: {{.Question}}

Search query:`

const chatSystemText = `You are an assistant that answers aircraft maintenance and operation questions using ONLY the provided sources.
Each source is wrapped in a tag carrying its name. Always cite the source name in square brackets after each fact, for example [manual-3.pdf].
If the sources do not contain the answer, say you don't know. Never invent information that is not in the sources.
Answer in plain language. Be brief.`

const chatUserText = `Sources:
{{.Knowledge}}

Question: {{.Question}}

Answer:`

// templates is the parsed registry, built once at package init.
var templates = map[string]*template.Template{
	SearchSystem: template.Must(template.New(SearchSystem).Parse(searchSystemText)),
	SearchUser:   template.Must(template.New(SearchUser).Parse(searchUserText)),
	ChatSystem:   template.Must(template.New(ChatSystem).Parse(chatSystemText)),
	ChatUser:     template.Must(template.New(ChatUser).Parse(chatUserText)),
}

// Render executes the named template against vars.
func Render(name string, vars Vars) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("rendering prompt %q: %w", name, err)
	}
	return sb.String(), nil
}
