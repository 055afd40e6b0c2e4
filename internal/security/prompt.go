// Package security screens user-supplied text before it is embedded in
// model prompts.
package security

import (
	"regexp"
	"strings"
	"unicode"
)

// InjectionReport describes the outcome of screening one piece of text.
type InjectionReport struct {
	Clean   bool     // true if no injection patterns matched
	Matched []string // the patterns that matched (empty when clean)
}

// Screener detects common prompt-injection phrasings in user questions.
// Retrieved document content and conversation history both end up inside
// the chat prompts verbatim, so flagged questions are worth surfacing in
// logs even when the pipeline still answers them.
//
// No pattern list is complete; this catches the common phrasings, not a
// determined attacker.
type Screener struct {
	patterns []*regexp.Regexp
}

// NewScreener creates a Screener with the default pattern set.
func NewScreener() *Screener {
	patterns := []string{
		// Attempts to displace the system prompt
		`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?|rules?)`,
		`(?i)disregard\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?)`,
		`(?i)forget\s+(all\s+)?(previous|above|prior)\s+(instructions?|context)`,
		`(?i)override\s+(all\s+)?(previous|above|prior)\s+(instructions?|rules?)`,

		// Persona switching
		`(?i)^(pretend|act|behave|imagine)\s+(you\s+are|to\s+be|as\s+if|like)`,
		`(?i)^you\s+are\s+now\s+a`,
		`(?i)^from\s+now\s+on,?\s+you\s+(are|will|must)`,

		// Injected directives
		`(?i)^new\s+(instruction|task|rule)\s*:`,
		`(?i)^admin\s*(mode|override|command)\s*:`,

		// Delimiter escapes aimed at the source tags in our prompts
		`(?i)</?(system|instruction|prompt|source)>`,
		`(?i)\]\s*\[\s*(system|assistant|instruction)`,

		// Jailbreak phrases
		`(?i)do\s+anything\s+now`,
		`(?i)jailbreak`,
		`(?i)bypass\s+(safety|filter|restrictions?)`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &Screener{patterns: compiled}
}

// Screen checks text for injection patterns.
func (s *Screener) Screen(text string) InjectionReport {
	normalized := normalize(text)

	var matched []string
	for _, re := range s.patterns {
		if re.MatchString(normalized) {
			matched = append(matched, re.String())
		}
	}

	return InjectionReport{Clean: len(matched) == 0, Matched: matched}
}

// normalize strips zero-width characters and collapses whitespace so
// spacing and invisible-character tricks do not slip past the patterns.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
