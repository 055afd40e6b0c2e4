package cmd

import (
	"fmt"
	"log/slog"

	"github.com/skydocs/skydocs/internal/chat"
	"github.com/skydocs/skydocs/internal/config"
	"github.com/skydocs/skydocs/internal/knowledge"
	"github.com/skydocs/skydocs/internal/llm"
	"github.com/skydocs/skydocs/internal/log"
	"github.com/skydocs/skydocs/internal/search"
)

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: parseLogLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newChatService assembles the full answering pipeline: search client,
// token-budgeted retriever, model clients, and the chat service on top.
func newChatService(cfg *config.Config, logger log.Logger) (*chat.Service, error) {
	searcher, err := search.NewClient(search.ClientConfig{
		Endpoint: cfg.SearchEndpoint,
		APIKey:   cfg.SearchAPIKey,
		Index:    cfg.SearchIndex,
		Top:      cfg.SearchTop,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	counter, err := knowledge.NewTiktokenCounter(cfg.TokenizerModel)
	if err != nil {
		return nil, fmt.Errorf("creating token counter: %w", err)
	}

	retriever, err := knowledge.NewRetriever(searcher, counter, cfg.MaxContextTokens, logger)
	if err != nil {
		return nil, fmt.Errorf("creating retriever: %w", err)
	}

	standard, err := llm.NewChatClient(llm.ClientConfig{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.StandardModel,
		RateLimit: cfg.LLMRateLimit,
		RateBurst: cfg.LLMRateBurst,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating standard model client: %w", err)
	}

	var advanced *llm.ChatClient
	if cfg.AdvancedModel != "" {
		advanced, err = llm.NewChatClient(llm.ClientConfig{
			BaseURL:   cfg.LLMBaseURL,
			APIKey:    cfg.LLMAPIKey,
			Model:     cfg.AdvancedModel,
			RateLimit: cfg.LLMRateLimit,
			RateBurst: cfg.LLMRateBurst,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating advanced model client: %w", err)
		}
	}

	facade, err := llm.NewFacade(standard, advanced)
	if err != nil {
		return nil, fmt.Errorf("creating model facade: %w", err)
	}

	svc, err := chat.NewService(chat.Config{
		Models:    func(t llm.Tier) chat.Generator { return facade.ForTier(t) },
		Retriever: retriever,
		Logger:    logger,
		Params: llm.Params{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		CitationBaseURL: cfg.CitationBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	return svc, nil
}
