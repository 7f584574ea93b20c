// Command econflux-lambda forwards Lambda events to a deployed EconFlux
// runtime.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"

	"github.com/scttfrdmn/econflux/econflux-go/config"
	"github.com/scttfrdmn/econflux/econflux-go/invoker"
	"github.com/scttfrdmn/econflux/econflux-go/observability"
)

func main() {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "econflux-lambda: %v\n", err)
		os.Exit(1)
	}
	// JSON logs for CloudWatch.
	logger := observability.ConfigureLogging(observability.ParseLevel(cfg.LogLevel), true, false)

	awsCfg, err := config.LoadAWS(context.Background(), config.AWSOptions{
		Region:           cfg.Region,
		RetryMaxAttempts: cfg.RetryAttempts,
	})
	if err != nil {
		logger.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	handler := invoker.NewHandler(
		bedrockagentcore.NewFromConfig(awsCfg),
		invoker.ConfigFromEnv(os.Getenv),
		logger,
	)
	lambda.Start(handler.Handle)
}
