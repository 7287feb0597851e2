package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
)

// SNSClient is the part of *sns.Client used for direct SMS publish.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSOption configures an SNSSender.
type SNSOption func(*SNSSender)

// WithSNSClient uses a pre-built client instead of loading AWS config.
func WithSNSClient(client SNSClient) SNSOption {
	return func(s *SNSSender) {
		s.client = client
	}
}

// SNSSender publishes texts straight to phone numbers.
type SNSSender struct {
	client     SNSClient
	attributes map[string]types.MessageAttributeValue
}

// NewSNSSender creates an SNS-backed sender. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewSNSSender(ctx context.Context, cfg Config, opts ...SNSOption) (*SNSSender, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: Region is required", ErrInvalidConfig)
	}
	if cfg.SMSType != "" && cfg.SMSType != "Transactional" && cfg.SMSType != "Promotional" {
		return nil, fmt.Errorf("%w: SMSType must be Transactional or Promotional", ErrInvalidConfig)
	}

	s := &SNSSender{attributes: messageAttributes(cfg)}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsOptions = append(awsOptions,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadConfig, err)
	}

	s.client = sns.NewFromConfig(awsConfig, func(o *sns.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return s, nil
}

// SendSMS implements SMSSender.
func (s *SNSSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(params.PhoneNumber),
		Message:           aws.String(params.Message),
		MessageAttributes: s.attributes,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return errors.Join(ErrFailedToSendSMS,
				fmt.Errorf("sns error %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()))
		}
		return errors.Join(ErrFailedToSendSMS, err)
	}
	return nil
}

func messageAttributes(cfg Config) map[string]types.MessageAttributeValue {
	attrs := make(map[string]types.MessageAttributeValue, 3)
	set := func(name, value string) {
		if value == "" {
			return
		}
		attrs[name] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}
	set("AWS.SNS.SMS.SMSType", cfg.SMSType)
	set("AWS.SNS.SMS.SenderID", cfg.SenderID)
	if cfg.MaxPrice != "" {
		attrs["AWS.SNS.SMS.MaxPrice"] = types.MessageAttributeValue{
			DataType:    aws.String("Number"),
			StringValue: aws.String(cfg.MaxPrice),
		}
	}
	return attrs
}
