package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taknotify/email"
	"github.com/taknotify/email/awsses"
	"github.com/taknotify/email/gmail"
	"github.com/taknotify/email/internal/logger"
)

const (
	backendSMTP  = "smtp"
	backendSES   = "ses"
	backendGmail = "gmail"
)

type sendFlags struct {
	to      []string
	cc      []string
	bcc     []string
	from    string
	subject string
	body    string
	html    bool

	backend          string
	envPrefix        string
	env              string
	logLevel         string
	sesConfigSet     string
	gmailCredentials string
	gmailUser        string
}

func main() {
	if err := newRootCmd(&sendFlags{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(f *sendFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smtpsend",
		Short: "Send one email through the smtp notification provider",
		Long: `Send one email through the smtp notification provider.

Connection settings are read from the environment (SMTP_SERVER, SMTP_PORT,
SMTP_USERNAME, SMTP_PASSWORD, SMTP_USE_SSL, SMTP_DEFAULT_FROM_ADDRESS,
SMTP_TIMEOUT). The ses and gmail backends deliver the same message through
their APIs instead of an SMTP server.

Examples:
  smtpsend --to user@example.com --subject "Hello" --body "Hi there"
  smtpsend --backend ses --from noreply@example.com --to a@example.com,b@example.com --html --body "<b>Hi</b>"`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&f.to, "to", nil, "To addresses")
	flags.StringSliceVar(&f.cc, "cc", nil, "Cc addresses")
	flags.StringSliceVar(&f.bcc, "bcc", nil, "Bcc addresses")
	flags.StringVar(&f.from, "from", "", "From address (defaults to SMTP_DEFAULT_FROM_ADDRESS)")
	flags.StringVar(&f.subject, "subject", "", "Subject")
	flags.StringVar(&f.body, "body", "", "Body")
	flags.BoolVar(&f.html, "html", false, "Treat the body as HTML")
	flags.StringVar(&f.backend, "backend", backendSMTP, "Delivery backend: smtp, ses or gmail")
	flags.StringVar(&f.envPrefix, "env-prefix", email.DefaultEnvPrefix, "Environment variable prefix for provider options")
	flags.StringVar(&f.env, "env", "production", "Runtime environment; development enables console logs")
	flags.StringVar(&f.logLevel, "log-level", "info", "Log level")
	flags.StringVar(&f.sesConfigSet, "ses-configuration-set", "", "SES configuration set (ses backend)")
	flags.StringVar(&f.gmailCredentials, "gmail-credentials", "", "Service account JSON file (gmail backend)")
	flags.StringVar(&f.gmailUser, "gmail-user", "", "Mailbox to send as (gmail backend)")

	return cmd
}

func runSend(cmd *cobra.Command, f *sendFlags) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log, err := logger.New(f.env, f.logLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	opts, err := email.LoadOptions(f.envPrefix)
	if err != nil {
		return err
	}

	provider, err := newProvider(ctx, f, opts, log)
	if err != nil {
		return err
	}

	result, err := provider.Send(ctx, f.message().ToParameters())
	if err != nil {
		log.Error().Err(err).Str("reason", string(email.ReasonOf(err))).Msg("failed to send email")
		return err
	}
	if !result.IsSuccess {
		return errors.New(strings.Join(result.Errors, "; "))
	}

	log.Info().Strs("to", f.to).Str("backend", f.backend).Msg("email delivered")
	return nil
}

func (f *sendFlags) message() email.EmailMessage {
	m := email.NewEmailMessage()
	m.ToAddresses = append(m.ToAddresses, f.to...)
	m.CCAddresses = append(m.CCAddresses, f.cc...)
	m.BCCAddresses = append(m.BCCAddresses, f.bcc...)
	m.FromAddress = f.from
	m.Subject = f.subject
	m.Body = f.body
	m.IsHTML = f.html
	return m
}

func newProvider(ctx context.Context, f *sendFlags, opts email.Options, log zerolog.Logger) (*email.SMTPProvider, error) {
	switch f.backend {
	case backendSMTP:
		return email.NewSMTPProvider(opts, log)

	case backendSES:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := awsses.NewSESMailClient(sesv2.NewFromConfig(awsCfg))
		if f.sesConfigSet != "" {
			client = client.WithConfigurationSet(f.sesConfigSet)
		}
		return email.NewSMTPProviderWithClient(client, opts, log), nil

	case backendGmail:
		if f.gmailCredentials == "" || f.gmailUser == "" {
			return nil, errors.New("gmail backend requires --gmail-credentials and --gmail-user")
		}
		creds, err := os.ReadFile(f.gmailCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading gmail credentials: %w", err)
		}
		client, err := gmail.NewGmailMailClient(ctx, creds, f.gmailUser)
		if err != nil {
			return nil, err
		}
		return email.NewSMTPProviderWithClient(client, opts, log), nil
	}

	return nil, fmt.Errorf("unknown backend %q", f.backend)
}
