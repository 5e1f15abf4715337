package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lesstokens "github.com/lesstokens/lesstokens-go"
	"github.com/lesstokens/lesstokens-go/internal/config"
)

func init() {
	rootCmd.AddCommand(streamCmd)
	addLLMFlags(streamCmd)
}

var streamCmd = &cobra.Command{
	Use:   "stream [prompt]",
	Short: "Compress a prompt and stream the LLM response",
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

			stream, err := sdk.ProcessPromptStream(cmd.Context(), options)
			if err != nil {
				return err
			}

			for chunk := range stream {
				if chunk.Err != nil {
					return chunk.Err
				}
				if chunk.Content != "" {
					fmt.Print(chunk.Content)
				}
				if chunk.Done {
					fmt.Println()
					if chunk.Usage != nil {
						printUsage(os.Stderr, *chunk.Usage)
					}
				}
			}
			return nil
		})
	},
}
