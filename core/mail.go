package core

import "net/mail"

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		Body    string // text/plain
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.Body != "" }

// ParseAddresses parses raw email addresses, skipping the invalid ones.
func ParseAddresses(raw []string) []mail.Address {
	addrs := make([]mail.Address, 0, len(raw))
	for _, r := range raw {
		if addr, err := mail.ParseAddress(CleanString(r)); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}
