package email

import (
	"strconv"
	"strings"
)

// ProviderName is the name the SMTP provider registers under.
const ProviderName = "smtp"

// Parameter keys understood by the SMTP provider.
const (
	ParamToAddresses  = ProviderName + "_ToAddresses"
	ParamCCAddresses  = ProviderName + "_CCAddresses"
	ParamBCCAddresses = ProviderName + "_BCCAddresses"
	ParamFromAddress  = ProviderName + "_FromAddress"
	ParamSubject      = ProviderName + "_Subject"
	ParamBody         = ProviderName + "_Body"
	ParamIsHTML       = ProviderName + "_IsHtml"
)

const addressSeparator = ","

// EmailMessage is the email carried through a Parameters bag to the SMTP
// provider. Addresses must not contain commas; lists are joined with one.
type EmailMessage struct {
	ToAddresses  []string
	CCAddresses  []string
	BCCAddresses []string
	// Falls back to Options.DefaultFromAddress when empty.
	FromAddress string
	Subject     string
	Body        string
	// Body is HTML when set, plain text otherwise.
	IsHTML bool
}

func NewEmailMessage() EmailMessage {
	return EmailMessage{
		ToAddresses:  []string{},
		CCAddresses:  []string{},
		BCCAddresses: []string{},
	}
}

// FromParameters builds an EmailMessage from p. Missing keys keep their zero
// value. IsHtml is true only for "true" in any case; anything else is false.
// Empty list entries are kept so that Send rejects them.
func FromParameters(p Parameters) EmailMessage {
	m := NewEmailMessage()

	if v, ok := p[ParamToAddresses]; ok {
		m.ToAddresses = splitAddresses(v)
	}
	if v, ok := p[ParamCCAddresses]; ok {
		m.CCAddresses = splitAddresses(v)
	}
	if v, ok := p[ParamBCCAddresses]; ok {
		m.BCCAddresses = splitAddresses(v)
	}
	if v, ok := p[ParamFromAddress]; ok {
		m.FromAddress = v
	}
	if v, ok := p[ParamSubject]; ok {
		m.Subject = v
	}
	if v, ok := p[ParamBody]; ok {
		m.Body = v
	}
	if v, ok := p[ParamIsHTML]; ok {
		m.IsHTML = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	return m
}

// ToParameters converts m into the parameters consumed by the SMTP provider.
// Empty fields are left out; the HTML flag is always written.
func (m EmailMessage) ToParameters() Parameters {
	p := Parameters{}

	if len(m.ToAddresses) > 0 {
		p[ParamToAddresses] = strings.Join(m.ToAddresses, addressSeparator)
	}
	if len(m.CCAddresses) > 0 {
		p[ParamCCAddresses] = strings.Join(m.CCAddresses, addressSeparator)
	}
	if len(m.BCCAddresses) > 0 {
		p[ParamBCCAddresses] = strings.Join(m.BCCAddresses, addressSeparator)
	}
	if m.FromAddress != "" {
		p[ParamFromAddress] = m.FromAddress
	}
	if m.Subject != "" {
		p[ParamSubject] = m.Subject
	}
	if m.Body != "" {
		p[ParamBody] = m.Body
	}
	p[ParamIsHTML] = strconv.FormatBool(m.IsHTML)

	return p
}

func splitAddresses(s string) []string {
	addresses := []string{}
	for _, addr := range strings.Split(s, addressSeparator) {
		addresses = append(addresses, strings.TrimSpace(addr))
	}
	return addresses
}
