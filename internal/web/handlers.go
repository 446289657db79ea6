package web

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hollismb/kapture/internal/capture"
	"github.com/hollismb/kapture/internal/config"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/errors"
	"github.com/hollismb/kapture/internal/ops"
	"github.com/hollismb/kapture/internal/vault"
)

const maxUploadBytes = 32 << 20

// Handlers contains the HTTP route handlers for the capture daemon.
type Handlers struct {
	db       *sql.DB
	store    *vault.Store
	renderer *Renderer
	audio    *audioManager
}

// HandleCapture handles POST /api/capture — ingest one capture. Accepts a
// JSON body, or multipart form data with a "payload" JSON field and any
// number of "files" attachments.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decodeCapture(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := validateModalities(payload); err != nil {
		writeError(w, err)
		return
	}

	out := ops.Ingest(h.db, h.store, payload)
	writeJSON(w, http.StatusOK, out)
}

// decodeCapture extracts the capture payload from a JSON or multipart
// request, saving any uploaded attachments into the media directory.
func (h *Handlers) decodeCapture(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var payload map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxUploadBytes)).Decode(&payload); err != nil {
			return nil, errors.NewInvalidRequest("request body must be a JSON object")
		}
		return payload, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.NewInvalidRequest("malformed multipart form")
	}

	payload := map[string]any{}
	if raw := r.FormValue("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, errors.NewInvalidRequest("payload field must be a JSON object")
		}
	} else {
		// Bare form fields for simple clients.
		for _, key := range []string{"content", "clipboard", "tags", "sources", "context", "timestamp", "modalities"} {
			if v := r.FormValue(key); v != "" {
				payload[key] = v
			}
		}
	}

	var media []any
	if existing, ok := payload["media_files"].([]any); ok {
		media = existing
	}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unreadable upload %q", fh.Filename))
		}
		path, saveErr := h.store.SaveMedia(fh.Filename, f)
		f.Close()
		if saveErr != nil {
			return nil, errors.NewInternal(saveErr)
		}
		media = append(media, map[string]any{
			"path": path,
			"type": mediaTypeFor(fh.Filename, fh.Header.Get("Content-Type")),
			"name": filepath.Base(path),
		})
	}
	if len(media) > 0 {
		payload["media_files"] = media
	}
	return payload, nil
}

// mediaTypeFor classifies an upload from its declared content type, falling
// back to the file extension.
func mediaTypeFor(name, contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return capture.MediaImage
	case strings.HasPrefix(contentType, "audio/"):
		return capture.MediaAudio
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return capture.MediaImage
	case ".ogg", ".mp3", ".wav", ".m4a", ".flac":
		return capture.MediaAudio
	}
	return capture.MediaFileType
}

// validateModalities rejects captures that declare a modality without
// carrying the matching content. A capture with nothing at all is also
// rejected; everything past this check is accepted and coerced.
func validateModalities(payload map[string]any) error {
	content, _ := payload["content"].(string)
	clipboard, _ := payload["clipboard"].(string)
	media, _ := payload["media_files"].([]any)

	if strings.TrimSpace(content) == "" && strings.TrimSpace(clipboard) == "" && len(media) == 0 {
		return errors.NewInvalidRequest("capture is empty: provide content, clipboard, or media files")
	}

	hasMediaType := func(want string) bool {
		for _, e := range media {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := m["type"].(string); t == want {
				return true
			}
		}
		return false
	}

	for _, modality := range capture.CoerceList(payload["modalities"]) {
		switch modality {
		case "text":
			if strings.TrimSpace(content) == "" && strings.TrimSpace(clipboard) == "" {
				return errors.NewInvalidRequest("modality text declared without content")
			}
		case capture.MediaAudio, capture.MediaImage, capture.MediaScreenshot:
			if !hasMediaType(modality) {
				return errors.NewInvalidRequest(fmt.Sprintf("modality %s declared without a matching media file", modality))
			}
		}
	}
	return nil
}

// HandleSuggestions handles GET /api/suggestions/{field} — ranked
// autocomplete. The core treats unknown fields as empty; the HTTP boundary
// rejects them so client typos surface during development.
func (h *Handlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	field := r.PathValue("field")
	if !db.ValidField(field) {
		writeError(w, errors.NewInvalidField(field))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	suggestions := ops.Suggest(h.db, field, r.URL.Query().Get("query"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// HandleSuggestionExists handles GET /api/suggestion-exists/{field}?value=v.
func (h *Handlers) HandleSuggestionExists(w http.ResponseWriter, r *http.Request) {
	field := r.PathValue("field")
	if !db.ValidField(field) {
		writeError(w, errors.NewInvalidField(field))
		return
	}

	exists := ops.Exists(h.db, field, r.URL.Query().Get("value"))
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

// HandleRecentValues handles GET /api/recent-values. The mapping is wrapped
// in a recent_values envelope, which is what the capture clients unpack.
func (h *Handlers) HandleRecentValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recent_values": ops.RecentValues(h.db)})
}

// HandleConfig handles GET /api/config. The config is re-resolved per
// request so settings-file edits show up without a restart.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.Load())
}

// HandleClipboard handles GET /api/clipboard — best-effort read of the
// Wayland clipboard. Failures degrade to an empty clipboard.
func (h *Handlers) HandleClipboard(w http.ResponseWriter, r *http.Request) {
	out, err := exec.CommandContext(r.Context(), "wl-paste", "--no-newline").Output()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"clipboard": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clipboard": string(out)})
}

// HandleScreenshot handles POST /api/screenshot — grab the screen into the
// media directory and return the saved path.
func (h *Handlers) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(h.store.MediaDir, 0o755); err != nil {
		writeError(w, errors.NewInternal(err))
		return
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(h.store.MediaDir, name)

	if err := exec.CommandContext(r.Context(), "grim", path).Run(); err != nil {
		writeError(w, errors.NewInternal(fmt.Errorf("screenshot failed: %w", err)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "type": capture.MediaScreenshot})
}

// writeJSON encodes a response body, mirroring the shape the MCP surface
// returns for the same operations.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured errors onto their HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{
		"code":    string(errors.ErrInternal),
		"message": err.Error(),
	}
	if kErr, ok := err.(*errors.KaptureError); ok {
		status = kErr.Status
		body["code"] = string(kErr.Code)
		body["message"] = kErr.Message
		if kErr.Details != nil {
			body["details"] = kErr.Details
		}
	}
	writeJSON(w, status, map[string]any{"error": body})
}
