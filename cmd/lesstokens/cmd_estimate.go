package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lesstokens/lesstokens-go/internal/config"
	"github.com/lesstokens/lesstokens-go/internal/tokenizer"
)

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().String("model", "", "model whose tokenizer to use (defaults to LLM_MODEL)")
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [prompt]",
	Short: "Estimate the token count of a prompt locally",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readPrompt(args)
		if err != nil {
			return err
		}

		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			model = cfg.LLM.Model
		}

		estimator, err := tokenizer.New(model)
		if err != nil {
			return err
		}

		fmt.Println(estimator.Count(prompt))
		return nil
	},
}
