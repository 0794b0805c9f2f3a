// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}
