package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRetryMaxAttempts is the SDK retry count used by every AWS client.
const DefaultRetryMaxAttempts = 3

// AWSOptions selects region and credentials for the AWS clients.
type AWSOptions struct {
	// Region is the AWS region (default: us-east-1)
	Region string

	// Profile is the AWS profile name (optional)
	Profile string

	// Explicit credentials (optional). Both the key id and the secret must
	// be set for them to be used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// RetryMaxAttempts overrides DefaultRetryMaxAttempts when positive.
	RetryMaxAttempts int
}

// LoadAWS loads an AWS configuration from the default credential chain,
// narrowed by opts.
func LoadAWS(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions(opts)...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsConfig, nil
}

func loadOptions(opts AWSOptions) []func(*awsconfig.LoadOptions) error {
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = DefaultRetryMaxAttempts
	}

	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithRetryMaxAttempts(opts.RetryMaxAttempts),
	}

	if opts.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				opts.SessionToken,
			),
		))
	}
	return configOpts
}
