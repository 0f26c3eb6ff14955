package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names understood by the email worker.
const (
	VerifyEmail   = "verify_email"
	ResetPassword = "reset_password"
)

var verifyEmailTpl = template.Must(template.New(VerifyEmail).Parse(`
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Verify your email address</h2>
    <p>Hi {{or .Name "there"}},</p>
    <p>Confirm this address to finish setting up your account.</p>
    <p><a href="{{.VerifyURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Verify email</a></p>
    <p>This link expires in {{.ExpiresIn}}. If you did not create an account, ignore this email.</p>
  </body>
</html>`))

var resetPasswordTpl = template.Must(template.New(ResetPassword).Parse(`
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Reset your password</h2>
    <p>Hi {{or .Name "there"}},</p>
    <p>We received a request to reset the password for {{.Email}}.</p>
    <p><a href="{{.ResetURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Reset password</a></p>
    <p>This link expires in {{.ExpiresIn}}. If you did not request a reset, ignore this email.</p>
  </body>
</html>`))

// Render returns subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	var tpl *template.Template
	switch name {
	case VerifyEmail:
		tpl, subject = verifyEmailTpl, "Verify your email address"
	case ResetPassword:
		tpl, subject = resetPasswordTpl, "Reset your password"
	default:
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
