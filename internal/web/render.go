package web

import (
	"bytes"
	stderrors "errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hollismb/kapture/internal/errors"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ListPageData is the template data for the capture list page.
type ListPageData struct {
	PageData
	Items []ListItem
}

// ListItem is one capture row on the list page.
type ListItem struct {
	ID      string
	Name    string
	Tags    []string
	Context []string
	Snippet string
}

// DetailPageData is the template data for the capture detail page.
type DetailPageData struct {
	PageData
	ID           string
	FrontMatter  map[string]any
	RenderedHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"formatTime": formatTime,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data.
func (r *Renderer) renderPage(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error page.
func (r *Renderer) renderError(w http.ResponseWriter, err error) {
	var kErr *errors.KaptureError
	if !stderrors.As(err, &kErr) {
		kErr = errors.NewInternal(err)
	}

	r.renderPage(w, kErr.Status, "error", ErrorPageData{
		PageData:   PageData{Title: "Error", Version: r.version},
		StatusCode: kErr.Status,
		Message:    kErr.Message,
	})
}

// renderMarkdown converts a capture body to HTML. The body is the user's own
// markdown rendered back to the same user; goldmark escapes raw HTML blocks
// by default.
func renderMarkdown(body string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(body) + "</pre>")
	}
	return template.HTML(buf.String())
}

func formatTime(v any) string {
	switch ts := v.(type) {
	case time.Time:
		return ts.Format("2006-01-02 15:04:05")
	case string:
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			return parsed.Format("2006-01-02 15:04:05")
		}
		return ts
	default:
		return ""
	}
}
