package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmajewski/deepscout/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the configuration deepscout will run with.

Configuration is read from ~/.config/deepscout/config.yaml, overridden by a
.deepscout.yaml in the current directory or a parent, and finally by the
ANTHROPIC_API_KEY and TAVILY_API_KEY environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

func displayConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", maskKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	if cfg.Anthropic.UseBedrock {
		fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
		fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	}
	fmt.Printf("tavily.api_key: %s\n", maskKey(cfg.Tavily.APIKey))
	fmt.Printf("models.planner: %s\n", cfg.Models.Planner)
	fmt.Printf("models.splitter: %s\n", cfg.Models.Splitter)
	fmt.Printf("models.researcher: %s\n", cfg.Models.Researcher)
	fmt.Printf("research.max_steps: %d\n", cfg.Research.MaxSteps)
	fmt.Printf("research.max_tokens: %d\n", cfg.Research.MaxTokens)
	fmt.Printf("research.retry_attempts: %d\n", cfg.Research.RetryAttempts)
	fmt.Printf("research.retry_base_delay: %s\n", cfg.Research.RetryBaseDelay)
	fmt.Printf("research.step_timeout: %s\n", cfg.Research.StepTimeout)
	fmt.Printf("output.dir: %s\n", cfg.Output.Dir)
	fmt.Printf("output.history_db: %s\n", historyDBDisplay(cfg))
	fmt.Printf("\nconfig file: %s\n", config.GetUserConfigPath())
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "****"
}

func historyDBDisplay(cfg *config.Config) string {
	if cfg.Output.HistoryDB != "" {
		return cfg.Output.HistoryDB
	}
	return "(default)"
}
