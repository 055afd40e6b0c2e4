// Package knowledge implements the budget-aware retrieval core: the
// KnowledgeSource record with its canonical citation-tagged text form,
// and the Retriever that selects a token-bounded, rank-ordered subset
// of search candidates to ground a generation call.
package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source is one retrieved passage from the indexed knowledge base.
// SourcePage identifies the page-level chunk unit; SourceFile, when
// present, names the parent document.
type Source struct {
	SourcePage string `json:"sourcepage"`
	SourceFile string `json:"sourcefile,omitempty"`
	Content    string `json:"content"`
}

// sourceTextReplacer flattens line breaks so the content cannot break
// out of the tag wrapper.
var sourceTextReplacer = strings.NewReplacer("\r", " ", "\n", " ")

// Text renders the canonical citation-tagged form of the source. The
// same string is injected into the generation prompt and counted
// against the token budget, so the two always agree.
func (s Source) Text() string {
	return fmt.Sprintf("<source><name>%s</name><content> %s</content></source>",
		s.SourcePage, sourceTextReplacer.Replace(s.Content))
}

// EncodeSources serializes sources to the JSON citation form. This is
// the external/debug representation; in-process callers keep the
// []Source and never round-trip through it.
func EncodeSources(sources []Source) (string, error) {
	data, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("encoding sources: %w", err)
	}
	return string(data), nil
}

// DecodeSources parses the JSON citation form back into Source records.
// Field matching is case-insensitive, which encoding/json gives us for
// free, so externally produced payloads with different casing decode
// identically.
func DecodeSources(data string) ([]Source, error) {
	var sources []Source
	if err := json.Unmarshal([]byte(data), &sources); err != nil {
		return nil, fmt.Errorf("decoding sources: %w", err)
	}
	return sources, nil
}
