package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skydocs/skydocs/internal/chat"
	"github.com/skydocs/skydocs/internal/config"
	"github.com/skydocs/skydocs/internal/llm"
)

var (
	askTier     string
	askCategory string
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askTier, "tier", "", `model tier: "standard" or "advanced"`)
	askCmd.Flags().StringVar(&askCategory, "category", "", "restrict retrieval to one document category")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved source passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tier, err := llm.ParseTier(askTier)
	if err != nil {
		return fmt.Errorf("parsing tier: %w", err)
	}

	logger := newLogger(cfg)
	svc, err := newChatService(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	question := strings.Join(args, " ")
	resp, err := svc.Reply(context.Background(), []chat.Turn{{User: question}}, chat.Overrides{
		Tier:     tier,
		Category: askCategory,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	// Answers carry HTML line breaks for the web client.
	fmt.Println(strings.ReplaceAll(resp.Answer, "<br>", "\n"))

	if askSources && len(resp.DataPoints) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, dp := range resp.DataPoints {
			fmt.Printf("  [%s] %s\n", dp.SourcePage, dp.Content)
		}
	}

	return nil
}
