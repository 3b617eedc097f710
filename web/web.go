// Package web holds the chat and operator pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

func Templates() (*template.Template, error) {
	return template.New("").ParseFS(files, "templates/*.html")
}
