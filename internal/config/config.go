package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment overrides, in priority order. A data-dir override forces the
// database file name; the others replace the configured value verbatim.
const (
	EnvConfigPath  = "KAPTURE_CONFIG_PATH"
	EnvVaultPath   = "KAPTURE_VAULT_PATH"
	EnvDBPath      = "KAPTURE_DB_PATH"
	EnvDataDir     = "KAPTURE_DATA_DIR"
	EnvXDGDataHome = "XDG_DATA_HOME"
)

// RootSentinel in a settings file's vault.path resolves to the directory the
// settings file was discovered in. With a "/dev" suffix it resolves to that
// directory's dev subdirectory, so one settings file can mean different
// things depending on where it lives.
const RootSentinel = "ROOT_DIRECTORY_PATH"

const (
	settingsFileName = "config.yaml"
	maxSearchDepth   = 4

	defaultVaultPath  = "~/notes"
	defaultCaptureDir = "capture/raw_capture"
	defaultMediaDir   = "capture/raw_capture/media"
	defaultDBPath     = "server/main.db"
	defaultPollMS     = 200

	dataHomeSubdir = "kapture"
	dbFileName     = "main.db"
)

// Vault holds the resolved storage locations for capture documents.
// CaptureDir and MediaDir are relative to Path.
type Vault struct {
	Path       string `json:"path"`
	CaptureDir string `json:"capture_dir"`
	MediaDir   string `json:"media_dir"`
}

// Database holds the resolved database location.
type Database struct {
	Path string `json:"path"`
}

// UI holds settings consumed by the capture UI shell.
type UI struct {
	ClipboardPollMS int `json:"clipboard_poll_ms"`
}

// Config is the effective process configuration. It is recomputed from
// scratch on every Load call so tests can flip environment variables between
// calls. Capture, Keybindings, and Theme are opaque pass-through sections.
type Config struct {
	Vault       Vault          `json:"vault"`
	Database    Database       `json:"database"`
	UI          UI             `json:"ui"`
	Capture     map[string]any `json:"capture"`
	Keybindings map[string]any `json:"keybindings"`
	Theme       map[string]any `json:"theme"`
	Mode        string         `json:"mode"`
	IsDev       bool           `json:"is_dev"`
}

// CaptureDirAbs returns the absolute capture directory.
func (c *Config) CaptureDirAbs() string {
	return filepath.Join(c.Vault.Path, c.Vault.CaptureDir)
}

// MediaDirAbs returns the absolute media directory.
func (c *Config) MediaDirAbs() string {
	return filepath.Join(c.Vault.Path, c.Vault.MediaDir)
}

// settings mirrors the on-disk YAML document.
type settings struct {
	Vault struct {
		Path       string `yaml:"path"`
		CaptureDir string `yaml:"capture_dir"`
		MediaDir   string `yaml:"media_dir"`
	} `yaml:"vault"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	UI struct {
		ClipboardPollMS *int `yaml:"clipboard_poll_ms"`
	} `yaml:"ui"`
	Capture     map[string]any `yaml:"capture"`
	Keybindings map[string]any `yaml:"keybindings"`
	Theme       map[string]any `yaml:"theme"`
	Development struct {
		Mode string `yaml:"mode"`
	} `yaml:"development"`
}

// Load computes the effective configuration from environment overrides, the
// discovered settings file, and compiled-in defaults, in that priority order.
// Resolution never fails: every unreadable or missing input falls back to the
// next-lower-priority source.
func Load() Config {
	doc, root := loadSettings()

	vaultPath := doc.Vault.Path
	if vaultPath == "" {
		vaultPath = defaultVaultPath
	}
	switch vaultPath {
	case RootSentinel:
		vaultPath = root
	case RootSentinel + "/dev":
		vaultPath = filepath.Join(root, "dev")
	}

	mode := doc.Development.Mode
	if mode != "dev" {
		mode = "prod"
	}

	dbPath := resolveDBPath(doc.Database.Path, mode, root)

	if p := os.Getenv(EnvVaultPath); p != "" {
		vaultPath = p
	}
	vaultPath = expandTilde(vaultPath)

	captureDir := doc.Vault.CaptureDir
	if captureDir == "" {
		captureDir = defaultCaptureDir
	}
	mediaDir := doc.Vault.MediaDir
	if mediaDir == "" {
		mediaDir = defaultMediaDir
	}

	pollMS := defaultPollMS
	if doc.UI.ClipboardPollMS != nil {
		pollMS = *doc.UI.ClipboardPollMS
	}

	return Config{
		Vault: Vault{
			Path:       vaultPath,
			CaptureDir: captureDir,
			MediaDir:   mediaDir,
		},
		Database:    Database{Path: dbPath},
		UI:          UI{ClipboardPollMS: pollMS},
		Capture:     doc.Capture,
		Keybindings: doc.Keybindings,
		Theme:       doc.Theme,
		Mode:        mode,
		IsDev:       mode == "dev",
	}
}

// loadSettings locates and parses the settings document. It returns the
// parsed document (zero-valued when absent or unreadable) and the discovered
// repository root: the directory containing the settings file, or the working
// directory when no file was found.
func loadSettings() (settings, string) {
	var doc settings

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = findSettingsFile(cwd)
	}
	if path == "" {
		return doc, cwd
	}

	root := filepath.Dir(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return settings{}, root
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return settings{}, root
	}
	return doc, root
}

// findSettingsFile walks upward from dir looking for the settings file,
// checking at most maxSearchDepth levels.
func findSettingsFile(dir string) string {
	for i := 0; i < maxSearchDepth; i++ {
		candidate := filepath.Join(dir, settingsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolveDBPath applies the database-path layering: env overrides first, then
// the configured path (absolute used verbatim), with relative paths anchored
// to a platform data directory in prod mode or to the repository root in dev.
func resolveDBPath(configured, mode, root string) string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return filepath.Join(dir, dbFileName)
	}
	if p := os.Getenv(EnvDBPath); p != "" {
		return p
	}

	dbPath := configured
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if filepath.IsAbs(dbPath) {
		return dbPath
	}

	if mode == "prod" {
		dataHome := os.Getenv(EnvXDGDataHome)
		if dataHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(root, dbPath)
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		dir := filepath.Join(dataHome, dataHomeSubdir)
		_ = os.MkdirAll(dir, 0o755)
		return filepath.Join(dir, dbFileName)
	}
	return filepath.Join(root, dbPath)
}

// expandTilde expands a leading ~ to the user's home directory. Paths are
// returned unchanged when the home directory cannot be determined.
func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
