// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/ManuGH/pokemon-app/internal/history"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is everything the page template shows.
type PageData struct {
	Title       string
	Query       string
	Card        *Card
	Error       string
	Evolution   []StageView
	// Branches lists every path; it is only set for a chain that forks.
	Branches    [][]StageView
	EvolveError string
	ClickCount  int
	History     []history.Entry
	// TraceParent links browser beacons to the request that rendered the page.
	TraceParent string
}

// NextClickCount is the counter value carried by the evolution button.
func (d PageData) NextClickCount() int {
	return d.ClickCount + 1
}

// Renderer executes the embedded page template.
type Renderer struct {
	page *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.New("page.html.tmpl").Funcs(template.FuncMap{
		"arrow": func() string { return Arrow },
	}).ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{page: page}, nil
}

// Page writes the HTML page for data.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Pokémon Explorer"
	}
	return r.page.Execute(w, data)
}

// Static returns the embedded stylesheet and telemetry script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
