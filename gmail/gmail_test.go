package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/taknotify/email"
	"github.com/wneessen/go-mail"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// Mock Gmail messages API for testing
type mockMessagesSender struct {
	sendFunc func(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error)
}

func (m *mockMessagesSender) Send(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, userID, message)
	}
	return &gmail.Message{Id: "mock-message-id"}, nil
}

func newMsg(t *testing.T, from string, to, cc, bcc []string) *mail.Msg {
	t.Helper()

	msg := mail.NewMsg()
	if from != "" {
		if err := msg.From(from); err != nil {
			t.Fatalf("from: %v", err)
		}
	}
	if len(to) > 0 {
		if err := msg.To(to...); err != nil {
			t.Fatalf("to: %v", err)
		}
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			t.Fatalf("cc: %v", err)
		}
	}
	if len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			t.Fatalf("bcc: %v", err)
		}
	}
	msg.Subject("Test Subject")
	msg.SetBodyString(mail.TypeTextHTML, "<h1>Hello World</h1>")
	return msg
}

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()

	b, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not base64url: %v", err)
	}
	return string(b)
}

func TestSendMail_Success(t *testing.T) {
	tests := []struct {
		name          string
		msg           func(t *testing.T) *mail.Msg
		wantHeaders   []string
		unwantHeaders []string
	}{
		{
			name: "to only",
			msg: func(t *testing.T) *mail.Msg {
				return newMsg(t, "sender@example.com", []string{"recipient@example.com"}, nil, nil)
			},
			wantHeaders:   []string{"From: <sender@example.com>", "To: <recipient@example.com>", "Subject: Test Subject"},
			unwantHeaders: []string{"Bcc:"},
		},
		{
			name: "cc and bcc",
			msg: func(t *testing.T) *mail.Msg {
				return newMsg(t, "sender@example.com",
					[]string{"recipient@example.com"},
					[]string{"cc@example.com"},
					[]string{"bcc1@example.com", "bcc2@example.com"})
			},
			wantHeaders: []string{
				"Cc: <cc@example.com>",
				"Bcc: <bcc1@example.com>, <bcc2@example.com>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockMessagesSender{
				sendFunc: func(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
					if userID != "me" {
						t.Errorf("expected user ID me, got %s", userID)
					}

					raw := decodeRaw(t, message.Raw)
					for _, h := range tt.wantHeaders {
						if !strings.Contains(raw, h+"\r\n") {
							t.Errorf("expected header %q in raw message:\n%s", h, raw)
						}
					}
					for _, h := range tt.unwantHeaders {
						if strings.Contains(raw, h) {
							t.Errorf("unexpected header %q in raw message:\n%s", h, raw)
						}
					}
					if !strings.Contains(raw, "text/html") {
						t.Errorf("expected an html part:\n%s", raw)
					}

					return &gmail.Message{Id: "sent"}, nil
				},
			}

			client := NewGmailMailClientWithSender(sender)
			if err := client.SendMail(context.Background(), tt.msg(t)); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestSendMail_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  func(t *testing.T) *mail.Msg
	}{
		{
			name: "missing from address",
			msg: func(t *testing.T) *mail.Msg {
				return newMsg(t, "", []string{"recipient@example.com"}, nil, nil)
			},
		},
		{
			name: "no recipients",
			msg: func(t *testing.T) *mail.Msg {
				return newMsg(t, "sender@example.com", nil, nil, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			sender := &mockMessagesSender{
				sendFunc: func(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
					called = true
					return &gmail.Message{}, nil
				},
			}

			err := NewGmailMailClientWithSender(sender).SendMail(context.Background(), tt.msg(t))

			if email.ReasonOf(err) != email.REASON_VALIDATION_ERROR {
				t.Errorf("expected validation error, got %v", err)
			}
			if called {
				t.Error("expected Gmail API not to be called")
			}
		})
	}
}

func TestSendMail_GmailErrors(t *testing.T) {
	tests := []struct {
		name          string
		apiErr        error
		expectedError email.ErrorReason
		temporary     bool
	}{
		{
			name:          "invalid recipient",
			apiErr:        &googleapi.Error{Code: 400, Message: "Invalid To header: recipient address"},
			expectedError: email.REASON_INVALID_EMAIL,
		},
		{
			name:          "message too large",
			apiErr:        &googleapi.Error{Code: 400, Message: "Message too large"},
			expectedError: email.REASON_VALIDATION_ERROR,
		},
		{
			name:          "generic bad request",
			apiErr:        &googleapi.Error{Code: 400, Message: "Bad Request"},
			expectedError: email.REASON_VALIDATION_ERROR,
		},
		{
			name:          "unauthorized",
			apiErr:        &googleapi.Error{Code: 401, Message: "Login Required"},
			expectedError: email.REASON_VALIDATION_ERROR,
		},
		{
			name:          "blocked sender",
			apiErr:        &googleapi.Error{Code: 403, Message: "Sender blocked"},
			expectedError: email.REASON_MESSAGE_REJECTED,
		},
		{
			name:          "domain policy",
			apiErr:        &googleapi.Error{Code: 403, Message: "Domain policy forbids this"},
			expectedError: email.REASON_UNVERIFIED_DOMAIN,
		},
		{
			name:          "quota exceeded",
			apiErr:        &googleapi.Error{Code: 429, Message: "Quota exceeded for quota metric"},
			expectedError: email.REASON_RATE_LIMITED,
			temporary:     true,
		},
		{
			name:          "rate limited",
			apiErr:        &googleapi.Error{Code: 429, Message: "User-rate limit exceeded"},
			expectedError: email.REASON_RATE_LIMITED,
			temporary:     true,
		},
		{
			name:          "service unavailable",
			apiErr:        &googleapi.Error{Code: 503, Message: "Backend Error"},
			expectedError: email.REASON_SERVICE_ERROR,
			temporary:     true,
		},
		{
			name:          "gateway timeout",
			apiErr:        &googleapi.Error{Code: 504, Message: "Timeout"},
			expectedError: email.REASON_TIMEOUT,
			temporary:     true,
		},
		{
			name:          "unexpected status",
			apiErr:        &googleapi.Error{Code: 418, Message: "teapot"},
			expectedError: email.REASON_SERVICE_ERROR,
		},
		{
			name:          "context deadline",
			apiErr:        context.DeadlineExceeded,
			expectedError: email.REASON_TIMEOUT,
			temporary:     true,
		},
		{
			name:          "non api error",
			apiErr:        errors.New("something else"),
			expectedError: email.REASON_UNKNOWN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockMessagesSender{
				sendFunc: func(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
					return nil, tt.apiErr
				},
			}

			err := NewGmailMailClientWithSender(sender).SendMail(
				context.Background(),
				newMsg(t, "sender@example.com", []string{"recipient@example.com"}, nil, nil),
			)

			var emailErr *email.Error
			if !errors.As(err, &emailErr) {
				t.Fatalf("expected email.Error, got %T", err)
			}
			if emailErr.Reason != tt.expectedError {
				t.Errorf("expected error reason %s, got %s", tt.expectedError, emailErr.Reason)
			}
			if emailErr.Temporary != tt.temporary {
				t.Errorf("expected temporary %v, got %v", tt.temporary, emailErr.Temporary)
			}
			if !errors.Is(err, tt.apiErr) {
				t.Errorf("expected cause %v to be kept", tt.apiErr)
			}
		})
	}
}

func TestNewGmailMailClient_InvalidCredentials(t *testing.T) {
	_, err := NewGmailMailClient(context.Background(), []byte("not json"), "user@example.com")

	if email.ReasonOf(err) != email.REASON_VALIDATION_ERROR {
		t.Errorf("expected validation error, got %v", err)
	}
}
