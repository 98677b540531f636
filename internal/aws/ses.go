package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/optitalent/hr-backend/internal/config"
)

// EmailSender delivers a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SESService struct {
	client    *ses.Client
	fromEmail string
}

func NewSESService(ctx context.Context, cfg config.AWSConfig) (*SESService, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// override the endpoint for LocalStack
	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return NewSESServiceFromClient(client, cfg.FromEmail), nil
}

func NewSESServiceFromClient(client *ses.Client, fromEmail string) *SESService {
	return &SESService{client: client, fromEmail: fromEmail}
}

func (s *SESService) Sender() string {
	return s.fromEmail
}

// VerifyEmailIdentity registers the sender address with SES. LocalStack
// requires it before SendEmail succeeds.
func (s *SESService) VerifyEmailIdentity(ctx context.Context) error {
	_, err := s.client.VerifyEmailIdentity(ctx, &ses.VerifyEmailIdentityInput{
		EmailAddress: aws.String(s.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("failed to verify sender identity: %w", err)
	}
	return nil
}

func (s *SESService) SendEmail(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
			Subject: &types.Content{
				Data: aws.String(subject),
			},
		},
		Source: aws.String(s.fromEmail),
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	return nil
}
