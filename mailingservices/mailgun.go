package mailingservices

import (
	"context"
	"fmt"
	"time"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps the mailgun client for the transactional emails the service
// sends: magic-link sign-in and company invitations.
type Mailgun struct {
	Client *mailgun.MailgunImpl
	From   string
}

func (m *Mailgun) Init(conf *config.Config) {
	m.Client = mailgun.NewMailgun(conf.MgDomain, conf.MailgunApiKey)
	m.From = conf.MgEmailFrom
}

func (m *Mailgun) send(to, subject, body string) (string, error) {
	message := m.Client.NewMessage(m.From, subject, body, to)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, id, err := m.Client.Send(ctx, message)
	return id, err
}

// SendMagicLink mails the one-time sign-in link.
func (m *Mailgun) SendMagicLink(email, link string) (string, error) {
	body := fmt.Sprintf("Sign in to FilmCrew by opening this link:\n\n%s\n\nThe link expires in 15 minutes and can be used once.", link)
	return m.send(email, "Your FilmCrew sign-in link", body)
}

// SendCompanyInvite mails a pending company invitation.
func (m *Mailgun) SendCompanyInvite(email, companyName, link string) (string, error) {
	body := fmt.Sprintf("You have been invited to join %s on FilmCrew.\n\nReview the invitation here:\n\n%s", companyName, link)
	return m.send(email, fmt.Sprintf("Invitation to join %s on FilmCrew", companyName), body)
}
