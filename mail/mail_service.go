package mail

import (
	"fmt"
	"html"
	"log"

	"gopkg.in/gomail.v2"

	"interview_server/models"
)

// MailService composes and sends invitation emails. It runs behind a
// buffered channel drained by Run, so a slow SMTP provider never blocks the
// request that created the invitation.
type MailService struct {
	dialer    *gomail.Dialer
	from      string
	clientURL string
}

func NewMailService(host string, port int, user, password, clientURL string) *MailService {
	return &MailService{
		dialer:    gomail.NewDialer(host, port, user, password),
		from:      user,
		clientURL: clientURL,
	}
}

// Run consumes created-invitation events until the channel closes. Delivery
// failures are logged and dropped; the invitation itself is already
// committed and the host can resend from the dashboard.
func (m *MailService) Run(events <-chan models.InvitationCreated) {
	for ev := range events {
		if err := m.SendInvitationMail(ev); err != nil {
			log.Printf("failed to send invitation mail for %s: %v", ev.Invitation.ID, err)
		}
	}
}

// SendInvitationMail delivers the join code and deep link to the invitee.
func (m *MailService) SendInvitationMail(ev models.InvitationCreated) error {
	inv := ev.Invitation
	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", inv.InviteeEmail)
	message.SetHeader("Subject", "You're invited to "+subjectTitle(ev.RoomTitle))
	message.SetBody("text/html", invitationBody(ev, m.clientURL))
	return m.dialer.DialAndSend(message)
}

func subjectTitle(title string) string {
	if title == "" {
		return "an interview session"
	}
	return title
}

// invitationBody renders the HTML body. Host-supplied fields are escaped
// before interpolation.
func invitationBody(ev models.InvitationCreated, clientURL string) string {
	inv := ev.Invitation
	deepLink := fmt.Sprintf("%s/join?token=%s", clientURL, inv.Token)

	name := inv.InviteeName
	if name == "" {
		name = "there"
	}
	title := html.EscapeString(subjectTitle(ev.RoomTitle))
	name = html.EscapeString(name)

	return `
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
			<h2 style="color: #333; text-align: center;">` + title + `</h2>
			<p>Hi ` + name + `,</p>
			<p>You have been invited to join ` + title + `. Click the button below, or enter the join code by hand:</p>
			<p style="text-align: center;"><a href="` + html.EscapeString(deepLink) + `" style="display: inline-block; padding: 10px 20px; background-color: #007bff; color: #fff; text-decoration: none; border-radius: 5px;">Join session</a></p>
			<p style="text-align: center; font-size: 24px; letter-spacing: 3px;"><strong>` + html.EscapeString(inv.JoinCode) + `</strong></p>
			<p>The invitation expires on ` + inv.ExpiresAt.Format("Jan 2, 2006 15:04 MST") + `.</p>
		</div>
	`
}
