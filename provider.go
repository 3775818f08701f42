package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

var _ Provider = &SMTPProvider{}

// SMTPProvider adapts a Parameters bag into an email and hands it to a
// MailClient.
type SMTPProvider struct {
	client  MailClient
	options Options
	logger  zerolog.Logger
}

// NewSMTPProvider builds a provider that delivers through an SMTPClient
// created from o.
func NewSMTPProvider(o Options, logger zerolog.Logger) (*SMTPProvider, error) {
	client, err := NewSMTPClient(o)
	if err != nil {
		return nil, err
	}
	return NewSMTPProviderWithClient(client, o, logger), nil
}

// NewSMTPProviderWithClient builds a provider on an existing MailClient. Only
// o.DefaultFromAddress is consulted; connection settings belong to client.
func NewSMTPProviderWithClient(client MailClient, o Options, logger zerolog.Logger) *SMTPProvider {
	return &SMTPProvider{
		client:  client,
		options: o,
		logger:  logger.With().Str("provider", ProviderName).Logger(),
	}
}

func (p *SMTPProvider) Name() string {
	return ProviderName
}

// Send delivers the email described by params. A missing sender is reported
// as a failed Result; invalid addresses and delivery failures are returned
// as errors.
func (p *SMTPProvider) Send(ctx context.Context, params Parameters) (Result, error) {
	m := FromParameters(params)

	from := m.FromAddress
	if from == "" {
		from = p.options.DefaultFromAddress
	}
	if from == "" {
		return NewFailedResult(EmptyFromAddressMessage), nil
	}

	msg, err := buildMsg(from, m)
	if err != nil {
		return Result{}, err
	}

	p.logger.Debug().
		Str("subject", m.Subject).
		Strs("to", m.ToAddresses).
		Msg("sending email")

	if err := p.client.SendMail(ctx, msg); err != nil {
		return Result{}, err
	}

	p.logger.Debug().
		Str("subject", m.Subject).
		Strs("to", m.ToAddresses).
		Msg("email sent")

	return NewSuccessResult(), nil
}

func buildMsg(from string, m EmailMessage) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(from); err != nil {
		return nil, NewInvalidEmailError(fmt.Sprintf("invalid from address: %s", from), err)
	}

	for _, addr := range m.ToAddresses {
		if err := msg.AddTo(addr); err != nil {
			return nil, NewInvalidEmailError(fmt.Sprintf("invalid to address: %s", addr), err)
		}
	}
	for _, addr := range m.CCAddresses {
		if err := msg.AddCc(addr); err != nil {
			return nil, NewInvalidEmailError(fmt.Sprintf("invalid cc address: %s", addr), err)
		}
	}
	for _, addr := range m.BCCAddresses {
		if err := msg.AddBcc(addr); err != nil {
			return nil, NewInvalidEmailError(fmt.Sprintf("invalid bcc address: %s", addr), err)
		}
	}

	msg.Subject(m.Subject)

	contentType := mail.TypeTextPlain
	if m.IsHTML {
		contentType = mail.TypeTextHTML
	}
	msg.SetBodyString(contentType, m.Body)

	return msg, nil
}
