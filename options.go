package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix is the environment prefix LoadOptions uses when none is
// given, e.g. SMTP_SERVER.
const DefaultEnvPrefix = "SMTP"

// Options configures the SMTP provider and the SMTPClient it builds.
type Options struct {
	Server   string `envconfig:"SERVER"`
	Port     int    `envconfig:"PORT"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	UseSSL   bool   `envconfig:"USE_SSL"`
	// Used when a message does not carry its own from address.
	DefaultFromAddress string        `envconfig:"DEFAULT_FROM_ADDRESS"`
	Timeout            time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// LoadOptions reads Options from the environment under prefix.
func LoadOptions(prefix string) (Options, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultEnvPrefix
	}

	var o Options
	if err := envconfig.Process(prefix, &o); err != nil {
		return Options{}, NewValidationError("failed to load smtp options", err)
	}
	return o, nil
}

// Validate checks the fields an SMTPClient needs to dial the server.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Server) == "" {
		return NewValidationError("smtp server is required", nil)
	}
	if o.Port < 0 || o.Port > 65535 {
		return NewValidationError(fmt.Sprintf("invalid smtp port %d", o.Port), nil)
	}
	if o.Timeout < 0 {
		return NewValidationError(fmt.Sprintf("invalid smtp timeout %s", o.Timeout), nil)
	}
	if o.Password != "" && o.Username == "" {
		return NewValidationError("smtp password is set without a username", nil)
	}
	return nil
}
