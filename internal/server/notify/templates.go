package notify

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	passwordResetSubject = "Password Reset Request - Don't be a baboon!"
	usernameSubject      = "Your DiscBaboons Username - Don't be a baboon!"
)

type templatePair struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

var passwordResetTemplates = templatePair{
	html: htmltemplate.Must(htmltemplate.New("reset.html").Parse(
		`<p>Hi {{.Username}},</p>
<p>Your password reset code is: <strong>{{.Code}}</strong></p>
<p>This code expires in {{.Minutes}} minutes. If you did not request a reset you can ignore this e-mail.</p>`)),
	text: texttemplate.Must(texttemplate.New("reset.txt").Parse(
		`Hi {{.Username}},

Your password reset code is: {{.Code}}

This code expires in {{.Minutes}} minutes. If you did not request a reset you can ignore this e-mail.
`)),
}

var usernameTemplates = templatePair{
	html: htmltemplate.Must(htmltemplate.New("username.html").Parse(
		`<p>Hello,</p>
<p>The username associated with this e-mail address is: <strong>{{.Username}}</strong></p>`)),
	text: texttemplate.Must(texttemplate.New("username.txt").Parse(
		`Hello,

The username associated with this e-mail address is: {{.Username}}
`)),
}
