package notify

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

type emailData struct {
	Link string
}

type emailTemplate struct {
	subject string
	text    *template.Template
	html    *htmltemplate.Template
}

var invitationTemplate = emailTemplate{
	subject: "You have been invited to join Issue Tracker",
	text: template.Must(template.New("invitation.txt").Parse(`You've been invited!

You have been invited to join the Issue Tracker application.

Click the link below to accept your invitation and set up your account:
{{.Link}}

This invitation will expire in 7 days.

If you didn't request this invitation, you can safely ignore this email.
`)),
	html: htmltemplate.Must(htmltemplate.New("invitation.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>You've been invited!</h2>
    <p>You have been invited to join the Issue Tracker application.</p>
    <p><a href="{{.Link}}" style="padding: 14px 28px; background-color: #007bff; color: #ffffff; text-decoration: none; border-radius: 4px;">Accept Invitation</a></p>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all;">{{.Link}}</p>
    <p><strong>This invitation will expire in 7 days.</strong></p>
    <p style="font-size: 12px; color: #666;">If you didn't request this invitation, you can safely ignore this email.</p>
  </div>
</body>
</html>
`)),
}

var passwordResetTemplate = emailTemplate{
	subject: "Reset Your Password - Issue Tracker",
	text: template.Must(template.New("reset.txt").Parse(`Password Reset Request

You requested to reset your password for your Issue Tracker account.

Click the link below to reset your password:
{{.Link}}

This link will expire in 1 hour.

If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.

For security reasons, never share this link with anyone.
`)),
	html: htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password Reset Request</h2>
    <p>You requested to reset your password for your Issue Tracker account.</p>
    <p><a href="{{.Link}}" style="padding: 14px 28px; background-color: #007bff; color: #ffffff; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all;">{{.Link}}</p>
    <p style="color: #dc3545;"><strong>This link will expire in 1 hour.</strong></p>
    <p>If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.</p>
    <p style="font-size: 12px; color: #666;">For security reasons, never share this link with anyone.</p>
  </div>
</body>
</html>
`)),
}

func (t emailTemplate) render(to, link string) (Message, error) {
	data := emailData{Link: link}
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: t.subject, Text: text.String(), HTML: html.String()}, nil
}

func renderInvitation(to, link string) (Message, error) {
	return invitationTemplate.render(to, link)
}

func renderPasswordReset(to, link string) (Message, error) {
	return passwordResetTemplate.render(to, link)
}
