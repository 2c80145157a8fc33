package email

import (
	"fmt"
	"html"
	"net/mail"

	"github.com/shopspring/decimal"
)

type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

func (m *Message) HasRecipients() bool { return len(m.To) > 0 }

// Sender delivers messages in the background; failures are logged, not returned.
type Sender interface {
	SendMessages(messages ...*Message)
}

type Receipt struct {
	Name        string
	Email       string
	CourseTitle string
	Amount      decimal.Decimal
	Currency    string
}

func NewReceiptMessage(r Receipt) *Message {
	text := fmt.Sprintf("Hi %s,\n\nThanks for enrolling in %q.\nAmount paid: %s %s\n\nHappy learning!",
		r.Name, r.CourseTitle, r.Amount.StringFixed(2), r.Currency)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Thanks for enrolling in <strong>%s</strong>.</p><p>Amount paid: %s %s</p><p>Happy learning!</p>",
		html.EscapeString(r.Name), html.EscapeString(r.CourseTitle), r.Amount.StringFixed(2), r.Currency)
	return &Message{
		To:          []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:     "Enrollment confirmed: " + r.CourseTitle,
		TextContent: text,
		HTMLContent: html,
	}
}
