package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skydocs/skydocs/internal/log"
)

// ErrNoResults indicates the search provider returned zero candidates.
// This is a hard failure for the current request: with nothing to
// ground the answer, generating one anyway would be worse than failing
// visibly. Callers may reformulate and retry; this layer does not.
var ErrNoResults = errors.New("search returned no results")

// DefaultMaxContextTokens is the default ceiling on injected grounding
// text. It sits well below the model context window to leave room for
// instructions and conversation history.
const DefaultMaxContextTokens = 12000

// Filters narrow a search to a subset of the index.
type Filters struct {
	// Category restricts results to one document category (e.g. a
	// single aircraft model). Empty means no restriction.
	Category string
}

// Searcher is the external hybrid-search collaborator. It returns
// candidates in provider ranking order, and an empty slice (not an
// error) when nothing matches.
type Searcher interface {
	Search(ctx context.Context, query string, f Filters) ([]Source, error)
}

// Set is the outcome of one retrieval: the accepted sources in ranking
// order plus the concatenated knowledge buffer used verbatim as
// grounding text. The buffer only ever contains the tagged text of the
// accepted sources, never a truncated fragment.
type Set struct {
	Sources   []Source
	Knowledge string
}

// JSON returns the serialized citation form of the set's sources.
func (s *Set) JSON() (string, error) {
	return EncodeSources(s.Sources)
}

// Retriever selects a token-bounded subset of ranked search candidates.
type Retriever struct {
	searcher  Searcher
	counter   TokenCounter
	maxTokens int
	logger    log.Logger
}

// NewRetriever creates a Retriever. maxTokens <= 0 selects
// DefaultMaxContextTokens.
func NewRetriever(searcher Searcher, counter TokenCounter, maxTokens int, logger log.Logger) (*Retriever, error) {
	if searcher == nil {
		return nil, errors.New("knowledge: searcher is required")
	}
	if counter == nil {
		return nil, errors.New("knowledge: token counter is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	return &Retriever{
		searcher:  searcher,
		counter:   counter,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Retrieve searches for query and returns the longest ranked-order
// prefix of candidates whose cumulative tagged-text token count stays
// within the budget. Later, smaller candidates are never substituted
// for an earlier, larger one: rank order is citation order.
//
// A zero-candidate search fails with ErrNoResults. A first candidate
// that alone exceeds the budget yields an empty Set and no error; that
// degenerate-but-successful state is distinct from the search failing.
func (r *Retriever) Retrieve(ctx context.Context, query string, f Filters) (*Set, error) {
	// Models sometimes return the derived query wrapped in quotes;
	// strip them before handing it to the provider.
	query = strings.ReplaceAll(query, `"`, "")

	candidates, err := r.searcher.Search(ctx, query, f)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("query %q: %w", query, ErrNoResults)
	}

	var (
		sb     strings.Builder
		set    Set
		tokens int
	)
	for _, candidate := range candidates {
		text := candidate.Text()
		n := r.counter.CountTokens(text)
		// Whole-document exclusion: truncating the last accepted
		// document would corrupt its citation tag.
		if tokens+n > r.maxTokens {
			break
		}
		tokens += n
		set.Sources = append(set.Sources, candidate)
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	set.Knowledge = sb.String()

	if len(set.Sources) == 0 {
		r.logger.Warn("token budget excluded every candidate, answer will be ungrounded",
			"query", query,
			"candidates", len(candidates),
			"max_tokens", r.maxTokens)
	} else {
		r.logger.Debug("retrieved knowledge",
			"query", query,
			"candidates", len(candidates),
			"accepted", len(set.Sources),
			"tokens", tokens)
	}

	return &set, nil
}
