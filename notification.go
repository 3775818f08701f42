package email

import "context"

// Parameters is the provider-agnostic bag a dispatcher hands to a Provider.
type Parameters map[string]string

// Result is the outcome of a Provider send.
type Result struct {
	IsSuccess bool
	Errors    []string
}

func NewSuccessResult() Result {
	return Result{IsSuccess: true, Errors: []string{}}
}

func NewFailedResult(errs ...string) Result {
	return Result{IsSuccess: false, Errors: append([]string{}, errs...)}
}

// Provider is a named plugin that delivers a message over one channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, p Parameters) (Result, error)
}

// Notifier routes parameters to the provider registered under providerName.
type Notifier interface {
	Send(ctx context.Context, providerName string, p Parameters) (Result, error)
}

// SendEmailWithSMTP sends m through the provider n has registered as "smtp".
func SendEmailWithSMTP(ctx context.Context, n Notifier, m EmailMessage) (Result, error) {
	return n.Send(ctx, ProviderName, m.ToParameters())
}
