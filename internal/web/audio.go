package web

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/hollismb/kapture/internal/errors"
)

// Audio sources the recorder accepts.
const (
	audioSourceMicrophone = "microphone"
	audioSourceSystem     = "system"
)

var errRecorderExists = stderrors.New("recorder already exists")

// audioManager tracks in-flight recordings by recorder ID. Recording is a
// thin OS-shell wrapper like the clipboard and screenshot handlers: pw-record
// writes the wav while the process runs, and stopping is an interrupt.
type audioManager struct {
	mu       sync.Mutex
	sessions map[string]*audioSession
	command  func(source, path string) *exec.Cmd
}

type audioSession struct {
	cmd  *exec.Cmd
	path string
}

func newAudioManager() *audioManager {
	return &audioManager{
		sessions: make(map[string]*audioSession),
		command:  recordCommand,
	}
}

// recordCommand builds the capture process. System capture records the
// default sink monitor instead of the microphone.
func recordCommand(source, path string) *exec.Cmd {
	if source == audioSourceSystem {
		return exec.Command("pw-record", "-P", "stream.capture.sink=true", path)
	}
	return exec.Command("pw-record", path)
}

// start launches a recording for the given recorder ID.
func (m *audioManager) start(source, id, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		return errRecorderExists
	}
	cmd := m.command(source, path)
	if err := cmd.Start(); err != nil {
		return err
	}
	m.sessions[id] = &audioSession{cmd: cmd, path: path}
	return nil
}

// stop interrupts the recording and returns the saved file path. pw-record
// finalizes the wav on the interrupt signal; its exit status is ignored when
// the file made it to disk.
func (m *audioManager) stop(id string) (string, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no such recorder: %s", id)
	}

	_ = s.cmd.Process.Signal(os.Interrupt)
	waitErr := s.cmd.Wait()

	if _, err := os.Stat(s.path); err != nil {
		if waitErr != nil {
			return "", waitErr
		}
		return "", err
	}
	return s.path, nil
}

// recording reports whether the recorder ID has an in-flight session.
func (m *audioManager) recording(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// HandleAudioStart handles POST /api/audio/start — begin a recording into
// the media directory.
func (h *Handlers) HandleAudioStart(w http.ResponseWriter, r *http.Request) {
	source := r.FormValue("recorder_type")
	id := r.FormValue("recorder_id")
	if source != audioSourceMicrophone && source != audioSourceSystem {
		writeError(w, errors.NewInvalidRequest(fmt.Sprintf("invalid recorder type: %s", source)))
		return
	}
	if id == "" || filepath.Base(id) != id {
		writeError(w, errors.NewInvalidRequest("invalid recorder id"))
		return
	}
	if err := os.MkdirAll(h.store.MediaDir, 0o755); err != nil {
		writeError(w, errors.NewInternal(err))
		return
	}

	name := fmt.Sprintf("audio_%s_%s.wav", id, time.Now().UTC().Format("20060102_150405"))
	if err := h.audio.start(source, id, filepath.Join(h.store.MediaDir, name)); err != nil {
		if stderrors.Is(err, errRecorderExists) {
			writeError(w, errors.NewInvalidRequest(fmt.Sprintf("recorder %s already exists", id)))
			return
		}
		writeError(w, errors.NewInternal(fmt.Errorf("start recording: %w", err)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "recording_started", "recorder_id": id})
}

// HandleAudioStop handles POST /api/audio/stop — finish the recording and
// report where the wav landed.
func (h *Handlers) HandleAudioStop(w http.ResponseWriter, r *http.Request) {
	path, err := h.audio.stop(r.FormValue("recorder_id"))
	if err != nil {
		writeError(w, errors.NewInternal(fmt.Errorf("stop recording: %w", err)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "recording_saved",
		"filename": filepath.Base(path),
		"filepath": path,
	})
}

// HandleAudioStatus handles GET /api/audio/status/{recorder_id}.
func (h *Handlers) HandleAudioStatus(w http.ResponseWriter, r *http.Request) {
	recording := h.audio.recording(r.PathValue("recorder_id"))
	writeJSON(w, http.StatusOK, map[string]any{"exists": recording, "is_recording": recording})
}
