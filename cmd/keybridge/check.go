package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/providers/anthropic"
	"keybridge-hq/keybridge/pkg/providers/openai"
)

var checkFlags struct {
	provider string
	key      string
	timeout  time.Duration
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe an API key for liveness",
	Long: `Probe a provider's API with the given key and report whether the key
is live. No key is stored; the probe is a one-shot request.

The key comes from --key, or from the provider's conventional environment
variable (OPENAI_API_KEY, ANTHROPIC_API_KEY) when the flag is omitted.

Examples:
  # Probe an OpenAI key
  keybridge check --provider openai --key sk-...

  # Probe the Anthropic key from the environment
  keybridge check --provider anthropic`,
	RunE: checkKey,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.provider, "provider", "p", "", "provider name (openai, anthropic)")
	checkCmd.Flags().StringVarP(&checkFlags.key, "key", "k", "", "API key to probe (defaults to the provider's env var)")
	checkCmd.Flags().DurationVar(&checkFlags.timeout, "timeout", 30*time.Second, "probe timeout")
	_ = checkCmd.MarkFlagRequired("provider")
}

func checkKey(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	key := checkFlags.key
	if key == "" {
		envVar := strings.ToUpper(checkFlags.provider) + "_API_KEY"
		key = os.Getenv(envVar)
		if key == "" {
			return fmt.Errorf("no key given: pass --key or set %s", envVar)
		}
	}

	registry := providers.NewRegistry()
	registry.Register(openai.New(openai.Config{Timeout: checkFlags.timeout}))
	registry.Register(anthropic.New(anthropic.Config{Timeout: checkFlags.timeout}))

	p, err := registry.Get(checkFlags.provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkFlags.timeout)
	defer cancel()

	if p.CheckKey(ctx, key) {
		fmt.Printf("✓ %s key is live\n", p.Name())
		return nil
	}

	fmt.Printf("✗ %s key is invalid\n", p.Name())
	os.Exit(1)
	return nil
}
