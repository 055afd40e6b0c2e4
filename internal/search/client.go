// Package search provides the HTTP client for the external hybrid
// search provider. The provider does the semantic/keyword ranking; this
// client only issues the query and maps the ranked hits onto
// knowledge.Source records, preserving provider order.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skydocs/skydocs/internal/knowledge"
	"github.com/skydocs/skydocs/internal/log"
)

const (
	// defaultTop is how many ranked candidates we request. The token
	// budget downstream usually admits far fewer.
	defaultTop = 10

	searchTimeout = 30 * time.Second
)

// ClientConfig configures the search client.
type ClientConfig struct {
	Endpoint string // service endpoint, e.g. https://search.example.net
	APIKey   string
	Index    string // index holding the page-level chunk units
	Top      int    // candidates per query, 0 = defaultTop

	Logger log.Logger
}

// Client queries one index of the hybrid search service. Stateless and
// safe for concurrent use; one long-lived instance serves all requests.
type Client struct {
	http   *resty.Client
	index  string
	top    int
	logger log.Logger
}

// Compile-time check that Client satisfies the retriever's contract.
var _ knowledge.Searcher = (*Client)(nil)

// NewClient creates a search client for the configured index.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("search: endpoint is required")
	}
	if strings.TrimSpace(cfg.Index) == "" {
		return nil, errors.New("search: index name is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	top := cfg.Top
	if top <= 0 {
		top = defaultTop
	}

	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(searchTimeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("api-key", cfg.APIKey)
	}

	return &Client{
		http:   httpClient,
		index:  cfg.Index,
		top:    top,
		logger: logger,
	}, nil
}

// queryRequest is the provider's query payload. QueryType "hybrid"
// selects combined semantic + keyword ranking on the provider side.
type queryRequest struct {
	Search    string `json:"search"`
	Filter    string `json:"filter,omitempty"`
	Top       int    `json:"top"`
	QueryType string `json:"queryType"`
}

// queryResponse mirrors the provider's hit envelope.
type queryResponse struct {
	Value []struct {
		SourcePage string  `json:"sourcepage"`
		SourceFile string  `json:"sourcefile"`
		Content    string  `json:"content"`
		Score      float64 `json:"@search.score"`
	} `json:"value"`
}

// Search issues one hybrid query and returns candidates in provider
// ranking order. An empty hit list is a valid empty result, not an
// error; the retriever decides what that means.
func (c *Client) Search(ctx context.Context, query string, f knowledge.Filters) ([]knowledge.Source, error) {
	req := queryRequest{
		Search:    query,
		Filter:    buildFilter(f),
		Top:       c.top,
		QueryType: "hybrid",
	}

	var out queryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/indexes/%s/docs/search", c.index))
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search request: status %d: %s", resp.StatusCode(), resp.String())
	}

	sources := make([]knowledge.Source, 0, len(out.Value))
	for _, hit := range out.Value {
		sources = append(sources, knowledge.Source{
			SourcePage: hit.SourcePage,
			SourceFile: hit.SourceFile,
			Content:    hit.Content,
		})
	}

	c.logger.Debug("search completed",
		"index", c.index,
		"query_length", len(query),
		"hits", len(sources))

	return sources, nil
}

// buildFilter renders the provider filter expression. Only the category
// facet is exposed today.
func buildFilter(f knowledge.Filters) string {
	if f.Category == "" {
		return ""
	}
	// Single-quote escaping per the provider's OData-style syntax.
	escaped := strings.ReplaceAll(f.Category, "'", "''")
	return fmt.Sprintf("category eq '%s'", escaped)
}
