package email

import (
	"context"
	"errors"
	"net"

	"github.com/wneessen/go-mail"
)

// MailClient delivers an assembled message. SMTPClient is the default
// implementation; the awsses and gmail packages provide API-backed ones.
type MailClient interface {
	SendMail(ctx context.Context, msg *mail.Msg) error
}

var _ MailClient = &SMTPClient{}

// SMTPClient sends messages over SMTP with go-mail. A new connection is
// opened for every SendMail call.
type SMTPClient struct {
	client  *mail.Client
	options Options
}

// NewSMTPClient builds an SMTPClient from o. Extra go-mail options are
// applied after the ones derived from o.
func NewSMTPClient(o Options, extra ...mail.Option) (*SMTPClient, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	c, err := mail.NewClient(o.Server, append(clientOptions(o), extra...)...)
	if err != nil {
		return nil, NewValidationError("failed to create smtp client", err)
	}

	return &SMTPClient{
		client:  c,
		options: o,
	}, nil
}

// Options returns the options the client was built with.
func (s *SMTPClient) Options() Options {
	return s.options
}

func (s *SMTPClient) SendMail(ctx context.Context, msg *mail.Msg) error {
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return categorizeSMTPError(err)
	}
	return nil
}

func clientOptions(o Options) []mail.Option {
	opts := []mail.Option{}

	// TLSMandatory/NoTLS pick 587/25; an explicit port below overrides that.
	if o.UseSSL {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	}

	if o.Port > 0 {
		opts = append(opts, mail.WithPort(o.Port))
	}

	if o.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(o.Username),
			mail.WithPassword(o.Password),
		)
	}

	if o.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(o.Timeout))
	}

	return opts
}

func categorizeSMTPError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("smtp request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewUnknownError("smtp request canceled", err)
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		e := categorizeSendError(sendErr, err)
		e.Temporary = e.Temporary || sendErr.IsTemp()
		return e
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTimeoutError("smtp connection timed out", err)
		}
		return NewConnectionError("failed to connect to smtp server", err)
	}

	return NewUnknownError("failed to send email", err)
}

func categorizeSendError(sendErr *mail.SendError, err error) *Error {
	switch sendErr.Reason {
	case mail.ErrGetSender, mail.ErrSMTPMailFrom:
		return NewInvalidEmailError("sender address rejected", err)
	case mail.ErrGetRcpts, mail.ErrSMTPRcptTo:
		return NewInvalidEmailError("recipient address rejected", err)
	case mail.ErrSMTPData, mail.ErrSMTPDataClose, mail.ErrWriteContent, mail.ErrNoUnencoded:
		return NewMessageRejectedError("message rejected by smtp server", err)
	case mail.ErrConnCheck, mail.ErrSMTPReset:
		return NewConnectionError("smtp connection failed", err)
	}
	return NewServiceError("smtp delivery failed", err)
}
