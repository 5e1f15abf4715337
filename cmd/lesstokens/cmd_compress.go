package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lesstokens "github.com/lesstokens/lesstokens-go"
	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/config"
)

func init() {
	rootCmd.AddCommand(compressCmd)

	compressCmd.Flags().Float64("ratio", 0, "target compression ratio between 0 and 1")
	compressCmd.Flags().Bool("preserve-context", false, "keep contextual details during compression")
	compressCmd.Flags().Bool("aggressive", false, "compress more aggressively")
	compressCmd.Flags().Bool("json", false, "print the full result as JSON")
}

var compressCmd = &cobra.Command{
	Use:   "compress [prompt]",
	Short: "Compress a prompt without calling an LLM",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readPrompt(args)
		if err != nil {
			return err
		}

		options := compressionOptions(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		return withSDK(func(sdk *lesstokens.SDK, _ *config.Config) error {
			compressed, err := sdk.CompressPrompt(cmd.Context(), prompt, options)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(compressed, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Fprintf(os.Stderr, "original tokens:   %d\n", compressed.OriginalTokens)
			fmt.Fprintf(os.Stderr, "compressed tokens: %d\n", compressed.CompressedTokens)
			fmt.Fprintf(os.Stderr, "savings:           %.2f%%\n", compressed.SavingsPercent)
			fmt.Println(compressed.Compressed)
			return nil
		})
	},
}

// compressionOptions builds options from flags, leaving fields unset when the
// corresponding flag was not passed.
func compressionOptions(cmd *cobra.Command) *core.CompressionOptions {
	options := &core.CompressionOptions{}
	set := false

	if cmd.Flags().Changed("ratio") {
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		options.TargetRatio = &ratio
		set = true
	}
	if cmd.Flags().Changed("preserve-context") {
		preserve, _ := cmd.Flags().GetBool("preserve-context")
		options.PreserveContext = &preserve
		set = true
	}
	if cmd.Flags().Changed("aggressive") {
		aggressive, _ := cmd.Flags().GetBool("aggressive")
		options.Aggressive = &aggressive
		set = true
	}

	if !set {
		return nil
	}
	return options
}
