package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taknotify/email"
	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var _ email.MailClient = &GmailMailClient{}

// MessagesSender is the slice of the Gmail users.messages API the client
// needs.
type MessagesSender interface {
	Send(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error)
}

type serviceSender struct {
	service *gmail.Service
}

func (s serviceSender) Send(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
	return s.service.Users.Messages.Send(userID, message).Context(ctx).Do()
}

// GmailMailClient delivers messages through the Gmail API on behalf of a
// single mailbox.
type GmailMailClient struct {
	sender MessagesSender
	userID string
}

// NewGmailMailClient authenticates with a service account that has
// domain-wide delegation and impersonates userEmail.
func NewGmailMailClient(ctx context.Context, credentialsJSON []byte, userEmail string) (*GmailMailClient, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, email.NewValidationError("unable to parse service account file", err)
	}

	config.Subject = userEmail

	service, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, email.NewServiceError("unable to create Gmail client", err)
	}

	return NewGmailMailClientWithSender(serviceSender{service: service}), nil
}

func NewGmailMailClientWithSender(sender MessagesSender) *GmailMailClient {
	return &GmailMailClient{
		sender: sender,
		userID: "me",
	}
}

func (g *GmailMailClient) SendMail(ctx context.Context, msg *mail.Msg) error {
	if len(msg.GetFrom()) == 0 {
		return email.NewValidationError("From address is required", nil)
	}

	if len(msg.GetTo()) == 0 && len(msg.GetCc()) == 0 && len(msg.GetBcc()) == 0 {
		return email.NewValidationError("At least one recipient is required", nil)
	}

	raw, err := rawMessage(msg)
	if err != nil {
		return email.NewValidationError("Failed to create message", err)
	}

	_, err = g.sender.Send(ctx, g.userID, &gmail.Message{Raw: raw})
	if err != nil {
		return mapGmailError(err)
	}

	return nil
}

// rawMessage renders msg for the Gmail API. go-mail leaves out the Bcc
// header, which Gmail needs to route blind copies, so it is added back.
func rawMessage(msg *mail.Msg) (string, error) {
	var buf bytes.Buffer

	if bcc := msg.GetBcc(); len(bcc) > 0 {
		addrs := make([]string, 0, len(bcc))
		for _, addr := range bcc {
			addrs = append(addrs, addr.String())
		}
		fmt.Fprintf(&buf, "Bcc: %s\r\n", strings.Join(addrs, ", "))
	}

	if _, err := msg.WriteTo(&buf); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func mapGmailError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := strings.ToLower(apiErr.Message)

		switch apiErr.Code {
		case http.StatusBadRequest:
			if strings.Contains(message, "invalid") &&
				(strings.Contains(message, "recipient") || strings.Contains(message, "email") || strings.Contains(message, "address")) {
				return email.NewInvalidEmailError("Invalid email address", err)
			}
			if strings.Contains(message, "too large") || strings.Contains(message, "size") {
				return email.NewValidationError("Message too large", err)
			}
			return email.NewValidationError("Invalid request parameters", err)

		case http.StatusUnauthorized:
			return email.NewValidationError("Authentication failed - check service account credentials", err)

		case http.StatusForbidden:
			if strings.Contains(message, "blocked") {
				return email.NewMessageRejectedError("Sender blocked by recipient", err)
			}
			if strings.Contains(message, "domain") {
				return email.NewUnverifiedDomainError("Domain policy prevents sending", err)
			}
			return email.NewUnverifiedDomainError("Permission denied", err)

		case http.StatusTooManyRequests:
			if strings.Contains(message, "quota") {
				return email.NewRateLimitedError("Gmail API quota exceeded", err)
			}
			return email.NewRateLimitedError("Gmail API rate limit exceeded", err)

		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			e := email.NewServiceError("Gmail service temporarily unavailable", err)
			e.Temporary = true
			return e

		case http.StatusGatewayTimeout:
			return email.NewTimeoutError("Gmail API request timeout", err)

		default:
			return email.NewServiceError(fmt.Sprintf("Gmail API error (HTTP %d)", apiErr.Code), err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return email.NewTimeoutError("Request timeout", err)
	}

	return email.NewUnknownError("Gmail API error", err)
}
