// Package chat implements the two-stage retrieval-augmented chat
// pipeline: derive a search intent from the conversation, retrieve a
// token-bounded set of grounding passages, then generate a cited
// answer. Each request walks the stages strictly in sequence; the only
// suspension points are the two model calls and the one search call.
package chat

import "github.com/skydocs/skydocs/internal/llm"

// Turn is one exchange of the conversation. The final turn's User field
// is the active question; its Assistant field is empty until answered.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant,omitempty"`
}

// Overrides carry per-request options. Immutable for the life of the
// request.
type Overrides struct {
	// Tier selects the model deployment answering this request.
	Tier llm.Tier `json:"tier"`

	// Category restricts retrieval to one document category. Empty
	// searches the whole index.
	Category string `json:"category,omitempty"`
}

// DataPoint is one citation in the response: the page-level source
// identity plus the grounding content shown to the user.
type DataPoint struct {
	SourcePage string `json:"sourcepage"`
	Content    string `json:"content"`
}

// Response is the complete reply for one request. Built once, never
// mutated, not persisted here.
type Response struct {
	Answer          string      `json:"answer"`
	DataPoints      []DataPoint `json:"data_points"`
	Thoughts        string      `json:"thoughts"`
	CitationBaseURL string      `json:"citation_base_url"`
}
