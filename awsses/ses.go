package awsses

import (
	"bytes"
	"context"
	"errors"
	netmail "net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/taknotify/email"
	"github.com/wneessen/go-mail"
)

var _ email.MailClient = &SESMailClient{}

type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailClient delivers messages through the Amazon SES v2 API as raw MIME.
type SESMailClient struct {
	sesClient SESClient
	// Optional SES configuration set applied to every send.
	configurationSet string
}

func NewSESMailClient(client SESClient) *SESMailClient {
	return &SESMailClient{
		sesClient: client,
	}
}

// WithConfigurationSet returns a copy of s that tags sends with the named
// SES configuration set.
func (s *SESMailClient) WithConfigurationSet(name string) *SESMailClient {
	c := *s
	c.configurationSet = name
	return &c
}

func (s *SESMailClient) SendMail(ctx context.Context, msg *mail.Msg) error {
	senders := msg.GetFrom()
	if len(senders) == 0 {
		return email.NewValidationError("from address is required", nil)
	}

	// The rendered message has no Bcc header, so every envelope recipient
	// goes into the destination.
	recipients := envelopeRecipients(msg)
	if len(recipients) == 0 {
		return email.NewValidationError("at least one recipient is required", nil)
	}

	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		return email.NewValidationError("failed to render message", err)
	}

	input := &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{
				Data: raw.Bytes(),
			},
		},
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		FromEmailAddress: aws.String(senders[0].Address),
	}
	if s.configurationSet != "" {
		input.ConfigurationSetName = aws.String(s.configurationSet)
	}

	if _, err := s.sesClient.SendEmail(ctx, input); err != nil {
		return categorizeAWSError(err)
	}

	return nil
}

func envelopeRecipients(msg *mail.Msg) []string {
	var recipients []string
	for _, list := range [][]*netmail.Address{msg.GetTo(), msg.GetCc(), msg.GetBcc()} {
		for _, addr := range list {
			recipients = append(recipients, addr.Address)
		}
	}
	return recipients
}

func categorizeAWSError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return email.NewTimeoutError("SES request timed out", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException", "LimitExceededException":
			return email.NewRateLimitedError("sending rate limit exceeded", err)
		case "MessageRejected":
			return email.NewMessageRejectedError("message rejected by SES", err)
		case "MailFromDomainNotVerifiedException":
			return email.NewUnverifiedDomainError("sender domain not verified", err)
		case "InvalidParameterValueException", "BadRequestException":
			return email.NewInvalidEmailError("invalid email parameter", err)
		case "AccountSuspendedException", "SendingPausedException":
			return email.NewServiceError("SES sending is disabled for this account", err)
		case "ServiceUnavailableException", "InternalServiceErrorException":
			e := email.NewServiceError("AWS SES service error", err)
			e.Temporary = true
			return e
		}
	}

	return email.NewUnknownError("failed to send email", err)
}
