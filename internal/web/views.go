package web

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hollismb/kapture/internal/errors"
	"github.com/hollismb/kapture/internal/vault"
)

// listPageCap bounds how many captures the list page reads off disk.
const listPageCap = 100

// HandleList handles GET /captures — newest captures first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	paths, err := h.store.ListCaptures()
	if err != nil {
		h.renderer.renderError(w, errors.NewInternal(err))
		return
	}

	var items []ListItem
	for i := len(paths) - 1; i >= 0 && len(items) < listPageCap; i-- {
		doc, err := vault.ReadCapture(paths[i])
		if err != nil {
			log.Printf("web: list skip %s: %v", filepath.Base(paths[i]), err)
			continue
		}
		items = append(items, ListItem{
			ID:      strings.TrimSuffix(filepath.Base(paths[i]), ".md"),
			Name:    filepath.Base(paths[i]),
			Tags:    stringSlice(doc.FrontMatter["tags"]),
			Context: stringSlice(doc.FrontMatter["context"]),
			Snippet: snippet(doc.Body),
		})
	}

	h.renderer.renderPage(w, http.StatusOK, "list", ListPageData{
		PageData: PageData{Title: "Captures", Version: h.renderer.version},
		Items:    items,
	})
}

// HandleDetail handles GET /captures/{id} — one rendered capture.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		h.renderer.renderError(w, errors.NewNotFound(id))
		return
	}

	doc, err := vault.ReadCapture(filepath.Join(h.store.CaptureDir, id+".md"))
	if err != nil {
		h.renderer.renderError(w, errors.NewNotFound(id))
		return
	}

	h.renderer.renderPage(w, http.StatusOK, "detail", DetailPageData{
		PageData:     PageData{Title: id, Version: h.renderer.version},
		ID:           id,
		FrontMatter:  doc.FrontMatter,
		RenderedHTML: renderMarkdown(doc.Body),
	})
}

// snippet pulls the first prose line out of a capture body.
func snippet(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		if runes := []rune(line); len(runes) > 120 {
			return string(runes[:120]) + "…"
		}
		return line
	}
	return ""
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range items {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
