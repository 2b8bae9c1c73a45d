package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPProvider delivers mail through a plain SMTP relay
type SMTPProvider struct {
	dialer *gomail.Dialer
}

func NewSMTPProvider(host string, port int, user, password string) *SMTPProvider {
	return &SMTPProvider{
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

// Send dispatches one message over SMTP. SMTP gives no asynchronous
// delivery receipt, so the provider message ID is generated locally
// and recipient rejections at submission time count as permanent.
func (p *SMTPProvider) Send(ctx context.Context, email *OutboundEmail) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Permanent: false, Err: err}
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", email.From, email.FromName)
	m.SetAddressHeader("To", email.To, email.ToName)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("X-Outreach-Message-ID", email.MessageID)
	m.SetBody("text/html", email.HTMLBody)

	if err := p.dialer.DialAndSend(m); err != nil {
		return nil, &Error{Permanent: isPermanentSMTPError(err), Err: fmt.Errorf("smtp send failed: %w", err)}
	}

	return &SendResult{ProviderMessageID: "smtp-" + uuid.New().String()}, nil
}

// isPermanentSMTPError classifies an SMTP submission error. 5xx reply
// codes are permanent rejections; everything else (4xx, dial errors,
// timeouts) is transient.
func isPermanentSMTPError(err error) bool {
	msg := err.Error()
	for _, code := range []string{"550", "551", "552", "553", "554"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
