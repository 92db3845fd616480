package mailer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"vms/src/config"
	"vms/src/lib"

	"github.com/wneessen/go-mail"
)

type Template string

const (
	TemplateVisitConfirmation    Template = "visit-confirmation"
	TemplateApprovalRequest      Template = "approval-request"
	TemplateVisitorApproved      Template = "visitor-approved"
	TemplateVisitorRejected      Template = "visitor-rejected"
	TemplateGuestCheckedIn       Template = "guest-checked-in"
	TemplateAccessCreated        Template = "access-created"
	TemplateAccessInvitation     Template = "access-invitation"
	TemplateAccessReminderOwner  Template = "access-reminder-creator"
	TemplateAccessReminderGuest  Template = "access-reminder-guest"
	TemplateAccessModifiedOwner  Template = "access-modified-creator"
	TemplateAccessModifiedGuest  Template = "access-modified-guest"
	TemplateAccessCancelled      Template = "access-cancelled"
)

// Data carries the variable parts of every template. Unused fields are
// ignored by templates that do not reference them.
type Data struct {
	VisitorName string
	HostName    string
	CompanyName string
	ApproveURL  string
	RejectURL   string
	Reason      string
	AccessName  string
	Location    string
	StartsAt    string
	InviteURL   string
	GuestEmail  string
}

// Mailer is built once at startup with its SMTP client and sender identity
// injected. All sends are synchronous; callers decide whether to fire them
// from a goroutine.
type Mailer struct {
	client   *mail.Client
	from     string
	fromName string
}

func New(client *mail.Client, from, fromName string) *Mailer {
	return &Mailer{client: client, from: from, fromName: fromName}
}

var std *Mailer

// Init wires the package-level dispatcher. SendGrid credentials win over the
// plain SMTP ones when both are present.
func Init() error {
	var c *mail.Client
	var err error
	if os.Getenv("SENDGRID_API_KEY") != "" {
		c, err = lib.SMTPNewSendGrid()
	} else {
		c, err = lib.SMTPNewDefault()
	}
	if err != nil {
		return err
	}
	std = New(c, config.SMTPFrom(), "noreply")
	return nil
}

// NewMailer replaces the package dispatcher, for tests.
func NewMailer(m *Mailer) {
	std = m
}

func Send(t Template, to []string, data Data) error {
	if std == nil {
		return errors.New("mailer is not initialized")
	}
	return std.Send(t, to, data)
}

func (m *Mailer) Send(t Template, to []string, data Data) error {
	subject, body, err := render(t, data)
	if err != nil {
		return err
	}
	return lib.SendMail(m.client, &lib.SendMailInput{
		From:     m.from,
		FromName: m.fromName,
		To:       to,
		Subject:  subject,
		Body:     body,
		Html:     true,
	})
}

func render(t Template, d Data) (subject string, body string, err error) {
	switch t {
	case TemplateVisitConfirmation:
		subject = "Registro de visita recibido"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Tu registro de visita a %s ha sido recibido.</p>
			<p>Te avisaremos cuando tu anfitri&oacute;n apruebe la visita.</p>
		`, d.VisitorName, d.CompanyName)
	case TemplateApprovalRequest:
		subject = "Solicitud de aprobación de visita"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>%s ha solicitado visitarte.</p>
			<p><a href="%s">Aprobar visita</a> | <a href="%s">Rechazar visita</a></p>
			<p>Este enlace expira en 48 horas.</p>
		`, d.HostName, d.VisitorName, d.ApproveURL, d.RejectURL)
	case TemplateVisitorApproved:
		subject = "Tu visita ha sido aprobada"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Tu visita a %s ha sido aprobada.</p>
			<p>Presenta tu c&oacute;digo QR en recepci&oacute;n al llegar.</p>
		`, d.VisitorName, d.CompanyName)
	case TemplateVisitorRejected:
		subject = "Tu visita no fue aprobada"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Tu visita a %s no fue aprobada.</p>
			<p>Motivo: %s</p>
		`, d.VisitorName, d.CompanyName, d.Reason)
	case TemplateGuestCheckedIn:
		subject = "Un invitado ha llegado"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>%s acaba de registrar su entrada al evento %s.</p>
		`, d.HostName, d.VisitorName, d.AccessName)
	case TemplateAccessCreated:
		subject = "Evento creado"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Tu evento %s ha sido creado para el %s en %s.</p>
		`, d.HostName, d.AccessName, d.StartsAt, d.Location)
	case TemplateAccessInvitation:
		subject = "Invitación a un evento"
		body = fmt.Sprintf(`
			<p>Hola,</p>
			<p>Has sido invitado al evento %s el %s en %s.</p>
			<p><a href="%s">Completa tu registro aqu&iacute;</a></p>
		`, d.AccessName, d.StartsAt, d.Location, d.InviteURL)
	case TemplateAccessReminderOwner:
		subject = "Recordatorio de tu evento"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Tu evento %s comienza el %s.</p>
		`, d.HostName, d.AccessName, d.StartsAt)
	case TemplateAccessReminderGuest:
		subject = "Recordatorio de evento"
		body = fmt.Sprintf(`
			<p>Hola,</p>
			<p>El evento %s al que est&aacute;s invitado comienza el %s.</p>
		`, d.AccessName, d.StartsAt)
	case TemplateAccessModifiedOwner:
		subject = "Tu evento ha sido modificado"
		body = fmt.Sprintf(`
			<p>Hola %s,</p>
			<p>Los datos de tu evento %s han cambiado. Nueva fecha: %s, lugar: %s.</p>
		`, d.HostName, d.AccessName, d.StartsAt, d.Location)
	case TemplateAccessModifiedGuest:
		subject = "Un evento ha sido modificado"
		body = fmt.Sprintf(`
			<p>Hola,</p>
			<p>El evento %s ha cambiado. Nueva fecha: %s, lugar: %s.</p>
		`, d.AccessName, d.StartsAt, d.Location)
	case TemplateAccessCancelled:
		subject = "Evento cancelado"
		body = fmt.Sprintf(`
			<p>Hola,</p>
			<p>El evento %s del %s ha sido cancelado.</p>
		`, d.AccessName, d.StartsAt)
	default:
		return "", "", fmt.Errorf("unknown mail template: %s", t)
	}
	return subject, body, nil
}

// Dispatch fires a template without blocking the caller. Errors are logged
// and swallowed: a failed notification never unwinds a committed state
// change.
func Dispatch(t Template, to []string, data Data) {
	go func() {
		if err := Send(t, to, data); err != nil {
			log.Printf("Could not send %s email to %v: %s\n", t, to, err.Error())
		}
	}()
}
