// Command econflux-invoke sends one prompt to a deployed EconFlux runtime
// and prints the response.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"

	"github.com/scttfrdmn/econflux/econflux-go/config"
	"github.com/scttfrdmn/econflux/econflux-go/invoker"
	"github.com/scttfrdmn/econflux/econflux-go/observability"
)

const defaultPrompt = "What ethical frameworks guide central bankers forward guidance during periods of " +
	"high inflation versus high unemployment? Analyze the philosophical underpinnings of policy " +
	"decisions and dissenting votes."

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "econflux-invoke: %v\n", err)
		os.Exit(1)
	}
	runtimeCfg := invoker.ConfigFromEnv(os.Getenv)

	flag.StringVar(&runtimeCfg.AgentRuntimeARN, "arn", runtimeCfg.AgentRuntimeARN, "Agent runtime ARN")
	flag.StringVar(&runtimeCfg.RuntimeSessionID, "session", runtimeCfg.RuntimeSessionID, "Runtime session id")
	flag.StringVar(&runtimeCfg.Qualifier, "qualifier", runtimeCfg.Qualifier, "Runtime endpoint qualifier")
	region := flag.String("region", cfg.Region, "AWS region")
	profile := flag.String("profile", "", "AWS shared config profile")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		prompt = defaultPrompt
	}

	logger := observability.ConfigureLogging(observability.ParseLevel(*logLevel), false, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := config.LoadAWS(ctx, config.AWSOptions{
		Region:           *region,
		Profile:          *profile,
		RetryMaxAttempts: cfg.RetryAttempts,
	})
	if err != nil {
		logger.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	handler := invoker.NewHandler(bedrockagentcore.NewFromConfig(awsCfg), runtimeCfg, logger)
	data, err := handler.Invoke(ctx, prompt)
	if err != nil {
		logger.Error("invocation failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		logger.Error("failed to format response", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Agent Response: %s\n", out)
}
