package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skydocs/skydocs/internal/knowledge"
	"github.com/skydocs/skydocs/internal/llm"
	"github.com/skydocs/skydocs/internal/log"
	"github.com/skydocs/skydocs/internal/prompt"
	"github.com/skydocs/skydocs/internal/security"
)

// Generator is the language-model collaborator as this package consumes
// it: one ordered history in, one completion out. *llm.ChatClient
// satisfies it; tests use recording fakes.
type Generator interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// GeneratorFor resolves a request's tier to the generator serving it,
// once per request. Wire it to llm.Facade.ForTier in production.
type GeneratorFor func(t llm.Tier) Generator

// Retriever is the knowledge-retrieval collaborator as this package
// consumes it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, f knowledge.Filters) (*knowledge.Set, error)
}

// Config contains the required parameters for the chat service.
type Config struct {
	Models    GeneratorFor
	Retriever Retriever
	Logger    log.Logger

	// Params are the process-wide generation defaults applied to both
	// model calls. Zero value selects llm.DefaultParams().
	Params llm.Params

	// CitationBaseURL qualifies citation links at the response
	// boundary. Not consulted by the pipeline itself.
	CitationBaseURL string
}

func (cfg Config) validate() error {
	if cfg.Models == nil {
		return errors.New("model resolver is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	return nil
}

// Service drives the two-stage pipeline. It is stateless across
// requests: all fields are read-only after construction, so one Service
// serves concurrent requests without locking.
type Service struct {
	models    GeneratorFor
	retriever Retriever
	logger    log.Logger

	params          llm.Params
	citationBaseURL string
	screener        *security.Screener

	// System prompts are static; rendered once at construction.
	searchSystem string
	chatSystem   string
}

// NewService creates the chat service.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	params := cfg.Params
	if params.MaxTokens == 0 {
		params = llm.DefaultParams()
	}

	searchSystem, err := prompt.Render(prompt.SearchSystem, prompt.Vars{})
	if err != nil {
		return nil, fmt.Errorf("rendering search system prompt: %w", err)
	}
	chatSystem, err := prompt.Render(prompt.ChatSystem, prompt.Vars{})
	if err != nil {
		return nil, fmt.Errorf("rendering chat system prompt: %w", err)
	}

	return &Service{
		models:          cfg.Models,
		retriever:       cfg.Retriever,
		logger:          logger,
		params:          params,
		citationBaseURL: cfg.CitationBaseURL,
		screener:        security.NewScreener(),
		searchSystem:    searchSystem,
		chatSystem:      chatSystem,
	}, nil
}

// Reply runs the full pipeline for one conversation and returns the
// grounded answer with its citations.
//
// Stages run strictly in order: the search query depends on the intent
// call's output and the answer depends on the retrieval result, so
// nothing can overlap. Cancelling ctx aborts whichever external call is
// in flight and surfaces as a ctx.Err()-wrapped failure. No state is
// persisted mid-request, so there is nothing to compensate.
func (s *Service) Reply(ctx context.Context, turns []Turn, ov Overrides) (*Response, error) {
	question, err := activeQuestion(turns)
	if err != nil {
		return nil, err
	}

	// Flag likely injection attempts but still answer: the prompts
	// instruct the model to stay within the retrieved sources, and a
	// false positive must not block a legitimate question.
	if report := s.screener.Screen(question); !report.Clean {
		s.logger.Warn("question matched prompt-injection patterns",
			"patterns", report.Matched)
	}

	gen := s.models(ov.Tier)
	if gen == nil {
		return nil, fmt.Errorf("no generator for tier %s", ov.Tier)
	}

	s.logger.Debug("starting chat request",
		"turns", len(turns),
		"tier", ov.Tier.String(),
		"category", ov.Category)

	// Stage 1: derive the search intent from the conversation.
	searchUser, err := prompt.Render(prompt.SearchUser, prompt.Vars{Question: question})
	if err != nil {
		return nil, fmt.Errorf("rendering search prompt: %w", err)
	}
	intentHistory := foldHistory(s.searchSystem, turns, false)
	intentHistory = append(intentHistory, llm.UserMessage(searchUser))

	query, err := gen.Complete(ctx, intentHistory, s.params)
	if err != nil {
		return nil, fmt.Errorf("deriving search query: %w", err)
	}

	// Stage 2: retrieve the token-bounded grounding set.
	set, err := s.retriever.Retrieve(ctx, query, knowledge.Filters{Category: ov.Category})
	if err != nil {
		return nil, fmt.Errorf("retrieving knowledge: %w", err)
	}

	// Stage 3: generate the grounded answer.
	chatUser, err := prompt.Render(prompt.ChatUser, prompt.Vars{
		Question:  question,
		Knowledge: set.Knowledge,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering chat prompt: %w", err)
	}
	answerHistory := foldHistory(s.chatSystem, turns, false)
	answerHistory = append(answerHistory, llm.UserMessage(chatUser))

	answer, err := gen.Complete(ctx, answerHistory, s.params)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	s.logger.Info("chat request completed",
		"tier", ov.Tier.String(),
		"citations", len(set.Sources),
		"answer_length", len(answer))

	return s.assembleResponse(query, chatUser, answer, set), nil
}

// assembleResponse builds the final payload: citations in retrieval
// order, answer with newlines rewritten for display, and a reasoning
// trace mirroring what was asked of the model.
func (s *Service) assembleResponse(query, chatUser, answer string, set *knowledge.Set) *Response {
	dataPoints := make([]DataPoint, 0, len(set.Sources))
	for _, src := range set.Sources {
		dataPoints = append(dataPoints, DataPoint{
			SourcePage: src.SourcePage,
			Content:    src.Content,
		})
	}

	thoughts := fmt.Sprintf("Searched for:<br>%s<br><br>System:<br>%s<br>%s<br><br>%s",
		query, htmlBreaks(s.chatSystem), htmlBreaks(chatUser), htmlBreaks(answer))

	return &Response{
		Answer:          htmlBreaks(answer),
		DataPoints:      dataPoints,
		Thoughts:        thoughts,
		CitationBaseURL: s.citationBaseURL,
	}
}

// activeQuestion validates the precondition and returns the final
// turn's user question.
func activeQuestion(turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("empty conversation: %w", ErrNoQuestion)
	}
	question := strings.TrimSpace(turns[len(turns)-1].User)
	if question == "" {
		return "", ErrNoQuestion
	}
	return question, nil
}

// htmlBreaks rewrites newlines to HTML line breaks for display.
func htmlBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
