package views

import (
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

// NavItem is one entry of the admin navigation.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

type layoutData struct {
	Title     string
	Nav       []NavItem
	FlashType string
	FlashMsg  string
	Content   template.HTML
}

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PurchaseDesk{{.Title}}</title>
<link rel="stylesheet" href="/css/admin.css">
</head>
<body>
<nav class="admin-nav">
<a class="brand" href="/admin/reports/purchases">PurchaseDesk</a>
<ul>{{range .Nav}}<li{{if .Active}} class="active"{{end}}><a href="{{.Href}}">{{.Label}}</a></li>{{end}}</ul>
</nav>
<main>
{{if .FlashMsg}}<div class="alert alert-{{.FlashType}}" role="alert">{{.FlashMsg}}</div>{{end}}
{{.Content}}
</main>
</body>
</html>
`))

// Page wraps content in the admin shell. msg is the flash map with "type"
// and "message" keys, nil when there is nothing to show.
func Page(title string, nav []NavItem, msg fiber.Map, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var body strings.Builder
		if err := content.Render(ctx, &body); err != nil {
			return err
		}

		data := layoutData{
			Title:   title,
			Nav:     nav,
			Content: template.HTML(body.String()),
		}
		if msg != nil {
			data.FlashType, _ = msg["type"].(string)
			data.FlashMsg, _ = msg["message"].(string)
		}
		return templ.FromGoHTML(layoutTmpl, data).Render(ctx, w)
	})
}
