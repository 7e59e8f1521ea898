package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// loadAWSConfig resolves the SDK config for region, using static credentials when configured.
func loadAWSConfig(ctx context.Context, region string, auth AWSAuth) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if auth.AccessKeyID != "" && auth.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(auth.AccessKeyID, auth.SecretAccessKey, auth.SessionToken),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// awsMessage is an event encoded for SQS or SNS.
type awsMessage struct {
	body  string
	attrs map[string]string
}

func encodeAWSMessage(evt Event) (awsMessage, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return awsMessage{}, fmt.Errorf("marshal event: %w", err)
	}
	attrs := make(map[string]string)
	for k, v := range evt.attributes() {
		if v != "" {
			attrs[k] = v
		}
	}
	return awsMessage{body: string(payload), attrs: attrs}, nil
}

// stringAttributes converts attrs into the SDK's message attribute type.
// SQS and SNS share the shape but not the Go type.
func stringAttributes[T any](attrs map[string]string, build func(dataType, value *string) T) map[string]T {
	out := make(map[string]T, len(attrs))
	for k, v := range attrs {
		out[k] = build(aws.String("String"), aws.String(v))
	}
	return out
}
