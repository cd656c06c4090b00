package mail

import "context"

// VerificationMailer sends the one-time signup code.
type VerificationMailer struct {
	sender  Sender
	from    string
	subject string
}

func NewVerificationMailer(sender Sender, from, subject string) *VerificationMailer {
	return &VerificationMailer{sender: sender, from: from, subject: subject}
}

func (m *VerificationMailer) SendVerificationEmail(ctx context.Context, email, username, code string) error {
	html, err := VerificationEmail{Username: username, OTP: code}.Render()
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		From:    m.from,
		To:      email,
		Subject: m.subject,
		HTML:    html,
	})
}
