package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every override this package reads so each test starts from
// compiled-in defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfigPath, EnvVaultPath, EnvDBPath, EnvDataDir, EnvXDGDataHome} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg := Load()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	if cfg.Vault.Path != filepath.Join(home, "notes") {
		t.Errorf("Vault.Path = %q, want %q", cfg.Vault.Path, filepath.Join(home, "notes"))
	}
	if cfg.Vault.CaptureDir != "capture/raw_capture" {
		t.Errorf("Vault.CaptureDir = %q, want capture/raw_capture", cfg.Vault.CaptureDir)
	}
	if cfg.Vault.MediaDir != "capture/raw_capture/media" {
		t.Errorf("Vault.MediaDir = %q, want capture/raw_capture/media", cfg.Vault.MediaDir)
	}
	if cfg.Mode != "prod" || cfg.IsDev {
		t.Errorf("Mode = %q, IsDev = %v, want prod/false", cfg.Mode, cfg.IsDev)
	}
	if cfg.UI.ClipboardPollMS != 200 {
		t.Errorf("ClipboardPollMS = %d, want 200", cfg.UI.ClipboardPollMS)
	}
}

func TestLoad_SettingsFileDiscovery(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	settings := `
vault:
  path: /srv/vault
  capture_dir: inbox
ui:
  clipboard_poll_ms: 50
development:
  mode: dev
`
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(settings), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Start two levels below the settings file; discovery walks upward.
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)

	cfg := Load()
	if cfg.Vault.Path != "/srv/vault" {
		t.Errorf("Vault.Path = %q, want /srv/vault", cfg.Vault.Path)
	}
	if cfg.Vault.CaptureDir != "inbox" {
		t.Errorf("Vault.CaptureDir = %q, want inbox", cfg.Vault.CaptureDir)
	}
	// media_dir unset in the file falls back to the default.
	if cfg.Vault.MediaDir != "capture/raw_capture/media" {
		t.Errorf("Vault.MediaDir = %q, want default", cfg.Vault.MediaDir)
	}
	if cfg.UI.ClipboardPollMS != 50 {
		t.Errorf("ClipboardPollMS = %d, want 50", cfg.UI.ClipboardPollMS)
	}
	if !cfg.IsDev {
		t.Error("IsDev = false, want true")
	}
}

func TestLoad_DiscoveryDepthLimit(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("vault:\n  path: /srv/vault\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Five levels below the settings file: out of reach for the 4-level walk.
	nested := filepath.Join(root, "a", "b", "c", "d")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)

	cfg := Load()
	if cfg.Vault.Path == "/srv/vault" {
		t.Error("settings file found beyond the maximum search depth")
	}
}

func TestLoad_VaultEnvOverrideWins(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("vault:\n  path: /srv/vault\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)
	t.Setenv(EnvVaultPath, "/env/vault")

	cfg := Load()
	if cfg.Vault.Path != "/env/vault" {
		t.Errorf("Vault.Path = %q, want /env/vault", cfg.Vault.Path)
	}
}

func TestLoad_RootSentinel(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("vault:\n  path: ROOT_DIRECTORY_PATH\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	if cfg.Vault.Path != root {
		t.Errorf("Vault.Path = %q, want %q", cfg.Vault.Path, root)
	}
}

func TestLoad_RootSentinelDevSuffix(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("vault:\n  path: ROOT_DIRECTORY_PATH/dev\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	if cfg.Vault.Path != filepath.Join(root, "dev") {
		t.Errorf("Vault.Path = %q, want %q", cfg.Vault.Path, filepath.Join(root, "dev"))
	}
}

func TestLoad_MalformedSettingsFallsBack(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("vault: [not: a: mapping"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	home, _ := os.UserHomeDir()
	if cfg.Vault.Path != filepath.Join(home, "notes") {
		t.Errorf("Vault.Path = %q, want tilde-expanded default", cfg.Vault.Path)
	}
}

func TestLoad_DataDirForcesDBFileName(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	dataDir := t.TempDir()
	t.Setenv(EnvDataDir, dataDir)
	t.Setenv(EnvDBPath, "/ignored/other.db")

	cfg := Load()
	if cfg.Database.Path != filepath.Join(dataDir, "main.db") {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, filepath.Join(dataDir, "main.db"))
	}
}

func TestLoad_DBPathEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv(EnvDBPath, "/custom/place.db")

	cfg := Load()
	if cfg.Database.Path != "/custom/place.db" {
		t.Errorf("Database.Path = %q, want /custom/place.db", cfg.Database.Path)
	}
}

func TestLoad_ProdRelativeDBUsesXDGDataHome(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	xdg := t.TempDir()
	t.Setenv(EnvXDGDataHome, xdg)

	cfg := Load()
	want := filepath.Join(xdg, "kapture", "main.db")
	if cfg.Database.Path != want {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, want)
	}
	if _, err := os.Stat(filepath.Join(xdg, "kapture")); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestLoad_DevRelativeDBAnchorsToRoot(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("development:\n  mode: dev\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	if cfg.Database.Path != filepath.Join(root, "server", "main.db") {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, filepath.Join(root, "server", "main.db"))
	}
}

func TestLoad_AbsoluteConfiguredDBUsedVerbatim(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("database:\n  path: /var/lib/kapture/main.db\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	if cfg.Database.Path != "/var/lib/kapture/main.db" {
		t.Errorf("Database.Path = %q, want /var/lib/kapture/main.db", cfg.Database.Path)
	}
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	other := t.TempDir()
	path := filepath.Join(other, "config.yaml")
	if err := os.WriteFile(path, []byte("vault:\n  path: /explicit/vault\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg := Load()
	if cfg.Vault.Path != "/explicit/vault" {
		t.Errorf("Vault.Path = %q, want /explicit/vault", cfg.Vault.Path)
	}
}

func TestLoad_OpaqueSectionsPassThrough(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	settings := `
theme:
  accent: green
keybindings:
  save: ctrl+s
capture:
  auto_focus: true
`
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(settings), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Chdir(root)

	cfg := Load()
	if cfg.Theme["accent"] != "green" {
		t.Errorf("Theme[accent] = %v, want green", cfg.Theme["accent"])
	}
	if cfg.Keybindings["save"] != "ctrl+s" {
		t.Errorf("Keybindings[save] = %v, want ctrl+s", cfg.Keybindings["save"])
	}
	if cfg.Capture["auto_focus"] != true {
		t.Errorf("Capture[auto_focus] = %v, want true", cfg.Capture["auto_focus"])
	}
}
