package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	lesstokens "github.com/lesstokens/lesstokens-go"
	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/config"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	addLLMFlags(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Compress a prompt and send it to the configured LLM provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readPrompt(args)
		if err != nil {
			return err
		}

		return withSDK(func(sdk *lesstokens.SDK, cfg *config.Config) error {
			options, err := buildProcessOptions(cmd, prompt, cfg)
			if err != nil {
				return err
			}

			response, err := sdk.ProcessPrompt(cmd.Context(), options)
			if err != nil {
				return err
			}

			fmt.Println(response.Content)
			printUsage(os.Stderr, response.Usage)
			return nil
		})
	},
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "LLM model (defaults to LLM_MODEL)")
	cmd.Flags().String("llm-key", "", "LLM API key (defaults to LLM_API_KEY)")
	cmd.Flags().String("system", "", "system message sent before the prompt")
	cmd.Flags().Float64("temperature", 0, "sampling temperature")
	cmd.Flags().Int("max-tokens", 0, "completion token limit")
	cmd.Flags().Float64("ratio", 0, "target compression ratio between 0 and 1")
}

func buildProcessOptions(cmd *cobra.Command, prompt string, cfg *config.Config) (lesstokens.ProcessOptions, error) {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = cfg.LLM.Model
	}
	apiKey, _ := cmd.Flags().GetString("llm-key")
	if apiKey == "" {
		apiKey = cfg.LLM.APIKey
	}

	llmOptions := map[string]any{}
	if cmd.Flags().Changed("temperature") {
		llmOptions["temperature"], _ = cmd.Flags().GetFloat64("temperature")
	}
	if cmd.Flags().Changed("max-tokens") {
		llmOptions["max_tokens"], _ = cmd.Flags().GetInt("max-tokens")
	}

	options := lesstokens.ProcessOptions{
		Prompt: prompt,
		LLMConfig: core.LLMConfig{
			APIKey:  apiKey,
			Model:   model,
			Options: llmOptions,
		},
	}

	if cmd.Flags().Changed("ratio") {
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		options.CompressionOptions = &core.CompressionOptions{TargetRatio: &ratio}
	}

	if system, _ := cmd.Flags().GetString("system"); system != "" {
		options.Messages = []core.ChatMessage{{Role: core.RoleSystem, Content: system}}
	}

	return options, nil
}

func printUsage(w io.Writer, usage core.TokenUsage) {
	fmt.Fprintf(w, "prompt tokens:     %d\n", usage.PromptTokens)
	fmt.Fprintf(w, "completion tokens: %d\n", usage.CompletionTokens)
	fmt.Fprintf(w, "total tokens:      %d\n", usage.TotalTokens)
	if usage.CompressedTokens != nil {
		fmt.Fprintf(w, "compressed tokens: %d\n", *usage.CompressedTokens)
	}
	if usage.SavingsPercent != nil {
		fmt.Fprintf(w, "savings:           %.2f%%\n", *usage.SavingsPercent)
	}
}
