// Package web holds the server-rendered pages of the local UI.
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"query": url.QueryEscape,
		"upper": strings.ToUpper,
	}).ParseFS(files, "templates/*.html")
}
