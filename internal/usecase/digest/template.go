package digest

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// weekDateLayout renders the digest period bounds.
const weekDateLayout = "02.01.2006"

// digestItem is one article entry in the digest body.
type digestItem struct {
	Title   string
	Date    string
	Preview string
	URL     string
}

// digestContext carries every field the digest templates may use.
type digestContext struct {
	Username       string
	CategoryName   string
	WeekStart      string
	WeekEnd        string
	Items          []digestItem
	UnsubscribeURL string
}

const digestTextBody = `Здравствуйте, {{.Username}}!

Еженедельный дайджест категории «{{.CategoryName}}» за период {{.WeekStart}} — {{.WeekEnd}}.

Новые статьи:
{{range .Items}}
{{.Title}} ({{.Date}})
{{.Preview}}
Читать полностью: {{.URL}}
{{end}}
Отписаться от категории: {{.UnsubscribeURL}}
`

const digestHTMLBody = `<html><body>
<p>Здравствуйте, {{.Username}}!</p>
<p>Еженедельный дайджест категории «{{.CategoryName}}» за период {{.WeekStart}} — {{.WeekEnd}}.</p>
<ul>
{{range .Items}}<li>
<a href="{{.URL}}">{{.Title}}</a> ({{.Date}})
<p>{{.Preview}}</p>
</li>
{{end}}</ul>
<p><a href="{{.UnsubscribeURL}}">Отписаться от категории</a></p>
</body></html>`

var (
	digestText = texttemplate.Must(texttemplate.New("digest").Parse(digestTextBody))
	digestHTML = htmltemplate.Must(htmltemplate.New("digest").Parse(digestHTMLBody))
)

// renderSubject builds the digest subject line for a category.
func renderSubject(categoryName string) string {
	return fmt.Sprintf("📊 Еженедельный дайджест: новые статьи в категории «%s»", categoryName)
}

// renderBodies renders the text and HTML digest bodies.
func renderBodies(dc digestContext) (text, html string, err error) {
	var textBuf, htmlBuf strings.Builder
	if err := digestText.Execute(&textBuf, dc); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := digestHTML.Execute(&htmlBuf, dc); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return textBuf.String(), htmlBuf.String(), nil
}
