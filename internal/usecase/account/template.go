package account

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// mailContext carries the fields the account email templates may use.
type mailContext struct {
	Username      string
	SiteName      string
	ActivationURL string
}

const welcomeTextBody = `Здравствуйте, {{.Username}}!

Добро пожаловать в {{.SiteName}}!

Для активации аккаунта перейдите по ссылке:
{{.ActivationURL}}

Ссылка действительна в течение 7 дней.
`

const welcomeHTMLBody = `<html><body>
<p>Здравствуйте, {{.Username}}!</p>
<p>Добро пожаловать в {{.SiteName}}!</p>
<p><a href="{{.ActivationURL}}">Активировать аккаунт</a></p>
<p>Ссылка действительна в течение 7 дней.</p>
</body></html>`

const successTextBody = `Здравствуйте, {{.Username}}!

Ваш аккаунт в {{.SiteName}} успешно активирован.
Теперь вам доступна публикация новостей и статей.
`

const successHTMLBody = `<html><body>
<p>Здравствуйте, {{.Username}}!</p>
<p>Ваш аккаунт в {{.SiteName}} успешно активирован.</p>
<p>Теперь вам доступна публикация новостей и статей.</p>
</body></html>`

var (
	welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(welcomeTextBody))
	welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(welcomeHTMLBody))
	successText = texttemplate.Must(texttemplate.New("success").Parse(successTextBody))
	successHTML = htmltemplate.Must(htmltemplate.New("success").Parse(successHTMLBody))
)

// welcomeSubject builds the welcome email subject line.
func welcomeSubject(siteName string) string {
	return fmt.Sprintf("🎉 Добро пожаловать в %s!", siteName)
}

// successSubject is the activation confirmation subject line.
func successSubject() string {
	return "✅ Ваш аккаунт успешно активирован!"
}

func render(text *texttemplate.Template, html *htmltemplate.Template, mc mailContext) (string, string, error) {
	var textBuf, htmlBuf strings.Builder
	if err := text.Execute(&textBuf, mc); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := html.Execute(&htmlBuf, mc); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return textBuf.String(), htmlBuf.String(), nil
}
