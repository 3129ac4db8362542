package render

import "html/template"

// pageTemplate is the single HTML shell every page is rendered into. The
// layout stays minimal so heading structure, hyperlink targets and table
// rows come through from the markdown untouched.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | {{.SiteTitle}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
</head>
<body>
<nav>
<ul>
{{- range .Nav}}
<li><a href="{{.Href}}">{{.Title}}</a></li>
{{- end}}
</ul>
</nav>
<main>
{{.Body}}
</main>
</body>
</html>
`))

// pageData feeds pageTemplate.
type pageData struct {
	Title       string
	SiteTitle   string
	Description string
	Nav         []navItem
	Body        template.HTML
}

type navItem struct {
	Title string
	Href  string
}

// bodyHTML marks already-rendered markdown output as safe for the template.
func bodyHTML(b []byte) template.HTML {
	return template.HTML(b)
}
