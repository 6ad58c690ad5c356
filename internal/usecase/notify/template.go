package notify

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"newsportal/internal/domain/entity"
)

// postDateLayout renders post timestamps the way the portal shows them.
const postDateLayout = "02.01.2006 в 15:04"

// templateContext carries every field the notification templates may use.
type templateContext struct {
	Username       string
	PostTitle      string
	PostPreview    string
	CategoryName   string
	AuthorName     string
	PostDate       string
	PostURL        string
	UnsubscribeURL string
}

const newsTextBody = `Здравствуйте, {{.Username}}!

В категории «{{.CategoryName}}» опубликована новая новость:

{{.PostTitle}}
Автор: {{.AuthorName}} · {{.PostDate}}

{{.PostPreview}}

Читать полностью: {{.PostURL}}

Отписаться от категории: {{.UnsubscribeURL}}
`

const articleTextBody = `Здравствуйте, {{.Username}}!

В категории «{{.CategoryName}}» опубликована новая статья:

{{.PostTitle}}
Автор: {{.AuthorName}} · {{.PostDate}}

{{.PostPreview}}

Читать полностью: {{.PostURL}}

Отписаться от категории: {{.UnsubscribeURL}}
`

const postHTMLBody = `<html><body>
<p>Здравствуйте, {{.Username}}!</p>
<p>В категории «{{.CategoryName}}» опубликован новый материал:</p>
<h2><a href="{{.PostURL}}">{{.PostTitle}}</a></h2>
<p>Автор: {{.AuthorName}} · {{.PostDate}}</p>
<p>{{.PostPreview}}</p>
<p><a href="{{.PostURL}}">Читать полностью</a></p>
<p><a href="{{.UnsubscribeURL}}">Отписаться от категории</a></p>
</body></html>`

var (
	newsText    = texttemplate.Must(texttemplate.New("news").Parse(newsTextBody))
	articleText = texttemplate.Must(texttemplate.New("article").Parse(articleTextBody))
	postHTML    = htmltemplate.Must(htmltemplate.New("post").Parse(postHTMLBody))
)

// renderSubject builds the notification subject line. NEWS and ARTICLE
// posts use distinct prefixes.
func renderSubject(postType entity.PostType, categoryName string) string {
	if postType == entity.News {
		return fmt.Sprintf("📰 Новая новость в категории «%s»", categoryName)
	}
	return fmt.Sprintf("📄 Новая статья в категории «%s»", categoryName)
}

// renderBodies renders the text and HTML bodies for one notification.
func renderBodies(postType entity.PostType, tc templateContext) (text, html string, err error) {
	tmpl := articleText
	if postType == entity.News {
		tmpl = newsText
	}

	var textBuf, htmlBuf strings.Builder
	if err := tmpl.Execute(&textBuf, tc); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := postHTML.Execute(&htmlBuf, tc); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return textBuf.String(), htmlBuf.String(), nil
}
