// Package web embeds the HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Slot is the data for one field's error span.
type Slot struct {
	Field   string
	Message string
}

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"slot": func(field, message string) Slot {
		return Slot{Field: field, Message: message}
	},
	"millis": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
}

// Templates parses every embedded template. Each file is addressable by its
// base name, e.g. "contact.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}

// Static is the embedded asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
