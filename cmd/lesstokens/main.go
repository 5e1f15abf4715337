package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	lesstokens "github.com/lesstokens/lesstokens-go"
	"github.com/lesstokens/lesstokens-go/internal/config"
	"github.com/lesstokens/lesstokens-go/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "lesstokens",
	Short:         "Compress prompts and talk to LLM providers through LessTokens",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// SDK
	if err := container.Provide(newSDK); err != nil {
		log.Fatalf("Failed to provide SDK: %v", err)
	}

	return container
}

func newSDK(cfg *config.Config, logger *zap.Logger) (*lesstokens.SDK, error) {
	observability.SetLogger(logger)

	sdkCfg := lesstokens.Config{
		APIKey:   cfg.LessTokens.APIKey,
		Provider: cfg.LessTokens.Provider,
		BaseURL:  cfg.LessTokens.BaseURL,
		Timeout:  time.Duration(cfg.LessTokens.TimeoutMs) * time.Millisecond,
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sdkCfg.Cache = lesstokens.NewRedisCache(client, time.Duration(cfg.Redis.CacheTTLSec)*time.Second)
	}

	return lesstokens.New(sdkCfg)
}

// withSDK wires the dependency container and hands a ready SDK to fn.
func withSDK(fn func(sdk *lesstokens.SDK, cfg *config.Config) error) error {
	return buildContainer().Invoke(fn)
}

// readPrompt takes the prompt from the first positional argument, or from
// stdin when no argument is given.
func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("no prompt given: pass it as an argument or on stdin")
	}

	return prompt, nil
}
