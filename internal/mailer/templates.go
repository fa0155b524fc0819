// AngelaMos | 2026
// templates.go

package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

type bodyData struct {
	ConfirmURL  string
	ConsentCopy string
	FormURL     string
}

const textBody = `Thanks for subscribing!

Please confirm your subscription by clicking the link below:
{{.ConfirmURL}}

If you did not request this, you can ignore this email.
{{- if .FormURL}}
Form URL: {{.FormURL}}{{end}}
{{- if .ConsentCopy}}
Consent: {{.ConsentCopy}}{{end}}
`

const htmlBody = `<div style="font-family:Arial,Helvetica,sans-serif;line-height:1.6;color:#111;">
  <p>Thanks for subscribing!</p>
  <p>Please confirm your subscription:</p>
  <p><a href="{{.ConfirmURL}}" style="display:inline-block;padding:12px 18px;background:#111;color:#fff;text-decoration:none;border-radius:6px;">Confirm my subscription</a></p>
  <p>Or copy and paste this link:<br /><a href="{{.ConfirmURL}}">{{.ConfirmURL}}</a></p>
  {{- if .ConsentCopy}}
  <p style="font-size:12px;color:#555;">Consent: {{.ConsentCopy}}</p>
  {{- end}}
  {{- if .FormURL}}
  <p style="font-size:12px;color:#555;">Form URL: {{.FormURL}}</p>
  {{- end}}
  <p style="font-size:12px;color:#777;">If you did not request this, you can ignore this email.</p>
</div>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("confirm.txt").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("confirm.html").Parse(htmlBody))
)

func renderBodies(data bodyData) (string, string, error) {
	var text, html bytes.Buffer

	if err := textTmpl.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}

	return strings.TrimSpace(text.String()) + "\n", html.String(), nil
}
