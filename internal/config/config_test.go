package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("CHESS_LAMP_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("LICHESS_TOKEN", "")
	t.Setenv("GOVEE_API_KEY", "")
	t.Setenv("GOVEE_DEVICE_MAC", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required configuration")
	}
	for _, key := range []string{"LICHESS_TOKEN", "GOVEE_API_KEY", "GOVEE_DEVICE_MAC"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoad_FileWithEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
lichess_token: file-token
govee_api_key: file-key
govee_device_mac: "AA:BB:CC:DD:EE:FF"
active_poll_interval: 500ms
effects:
  my_turn_color: "#112233"
  warn_seconds: 45
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHESS_LAMP_CONFIG", path)
	t.Setenv("LICHESS_TOKEN", "env-token")
	t.Setenv("GOVEE_API_KEY", "")
	t.Setenv("GOVEE_DEVICE_MAC", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LichessToken != "env-token" {
		t.Errorf("env should override file, got token %q", cfg.LichessToken)
	}
	if cfg.GoveeAPIKey != "file-key" {
		t.Errorf("file key lost, got %q", cfg.GoveeAPIKey)
	}
	if cfg.ActivePollInterval != 500*time.Millisecond {
		t.Errorf("active poll interval = %v", cfg.ActivePollInterval)
	}
	if cfg.Effects.MyTurnColor != "#112233" || cfg.Effects.WarnSeconds != 45 {
		t.Errorf("effects overlay wrong: %+v", cfg.Effects)
	}
	// Untouched defaults survive a partial file.
	if cfg.Effects.RestoreColor != "#FFC864" || cfg.Effects.RestoreBrightness != 100 {
		t.Errorf("restore defaults lost: %+v", cfg.Effects)
	}
	if cfg.GoveeModel != "H6022" {
		t.Errorf("model default lost: %q", cfg.GoveeModel)
	}
}

func TestLoad_ThresholdOrdering(t *testing.T) {
	t.Setenv("CHESS_LAMP_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("LICHESS_TOKEN", "tok")
	t.Setenv("GOVEE_API_KEY", "key")
	t.Setenv("GOVEE_DEVICE_MAC", "AA:BB:CC:DD:EE:FF")
	t.Setenv("TIME_CRITICAL_SECONDS", "60")
	t.Setenv("TIME_WARN_SECONDS", "30")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when critical threshold exceeds warning threshold")
	}
}

func TestLoad_HueKind(t *testing.T) {
	t.Setenv("CHESS_LAMP_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("LICHESS_TOKEN", "tok")
	t.Setenv("DEVICE_KIND", "hue")
	t.Setenv("HUE_BRIDGE_IP", "")
	t.Setenv("HUE_USERNAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("hue kind without bridge credentials should fail")
	}

	t.Setenv("HUE_BRIDGE_IP", "192.168.1.10")
	t.Setenv("HUE_USERNAME", "hueuser")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeviceKind != DeviceHue {
		t.Errorf("device kind = %q", cfg.DeviceKind)
	}
}
