package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Device backends selectable at startup.
const (
	DeviceGovee = "govee"
	DeviceHue   = "hue"
)

// Effects holds the per-event lamp colors, brightness levels, thresholds and
// enable flags. Loaded once, read-only afterwards.
type Effects struct {
	MyTurnColor        string `yaml:"my_turn_color"`
	MyTurnBrightness   int    `yaml:"my_turn_brightness"`
	OpponentColor      string `yaml:"opponent_color"`
	OpponentBrightness int    `yaml:"opponent_brightness"`

	CheckEnabled    bool   `yaml:"check_enabled"`
	CheckColor      string `yaml:"check_color"`
	CheckBrightness int    `yaml:"check_brightness"`
	CheckBlinkCount int    `yaml:"check_blink_count"`
	// Hold the check color until the check clears instead of blinking.
	CheckHold bool `yaml:"check_hold"`

	TimePressureEnabled bool    `yaml:"time_pressure_enabled"`
	WarnSeconds         float64 `yaml:"warn_seconds"`
	CriticalSeconds     float64 `yaml:"critical_seconds"`

	MoveFlashEnabled    bool          `yaml:"move_flash_enabled"`
	MoveFlashColor      string        `yaml:"move_flash_color"`
	MoveFlashBrightness int           `yaml:"move_flash_brightness"`
	MoveFlashInterval   time.Duration `yaml:"move_flash_interval"`
	BlinkInterval       time.Duration `yaml:"blink_interval"`

	RestoreColor      string `yaml:"restore_color"`
	RestoreBrightness int    `yaml:"restore_brightness"`
}

// AppConfig is the full configuration surface of the daemon.
type AppConfig struct {
	LichessToken   string `yaml:"lichess_token"`
	LichessBaseURL string `yaml:"lichess_base_url"`
	LichessUser    string `yaml:"lichess_user"`

	GoveeAPIKey    string `yaml:"govee_api_key"`
	GoveeDeviceMAC string `yaml:"govee_device_mac"`
	GoveeDeviceIP  string `yaml:"govee_device_ip"`
	GoveeModel     string `yaml:"govee_model"`
	GoveeCloudURL  string `yaml:"govee_cloud_url"`

	DeviceKind  string `yaml:"device_kind"`
	HueBridgeIP string `yaml:"hue_bridge_ip"`
	HueUsername string `yaml:"hue_username"`
	HueLight    string `yaml:"hue_light"`

	IdlePollInterval   time.Duration `yaml:"idle_poll_interval"`
	ActivePollInterval time.Duration `yaml:"active_poll_interval"`

	Effects Effects `yaml:"effects"`
}

// Load reads the optional YAML config file, overlays environment variables
// and validates required settings.
func Load() (*AppConfig, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv("CHESS_LAMP_CONFIG"))
	if path == "" {
		path = "config.yaml"
	}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	overlayEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		LichessBaseURL:     "https://lichess.org",
		GoveeModel:         "H6022",
		GoveeCloudURL:      "https://openapi.api.govee.com",
		DeviceKind:         DeviceGovee,
		IdlePollInterval:   2 * time.Second,
		ActivePollInterval: 800 * time.Millisecond,
		Effects: Effects{
			MyTurnColor:        "#00FF00",
			MyTurnBrightness:   40,
			OpponentColor:      "#FF0000",
			OpponentBrightness: 40,

			CheckEnabled:    true,
			CheckColor:      "#FF8C00",
			CheckBrightness: 80,
			CheckBlinkCount: 3,

			TimePressureEnabled: true,
			WarnSeconds:         30,
			CriticalSeconds:     10,

			MoveFlashEnabled:    true,
			MoveFlashColor:      "#FFFFFF",
			MoveFlashBrightness: 70,
			MoveFlashInterval:   150 * time.Millisecond,
			BlinkInterval:       250 * time.Millisecond,

			RestoreColor:      "#FFC864",
			RestoreBrightness: 100,
		},
	}
}

func overlayEnv(cfg *AppConfig) {
	setStr(&cfg.LichessToken, "LICHESS_TOKEN")
	setStr(&cfg.LichessBaseURL, "LICHESS_BASE_URL")
	setStr(&cfg.LichessUser, "LICHESS_USER")

	setStr(&cfg.GoveeAPIKey, "GOVEE_API_KEY")
	setStr(&cfg.GoveeDeviceMAC, "GOVEE_DEVICE_MAC")
	setStr(&cfg.GoveeDeviceIP, "GOVEE_DEVICE_IP")
	setStr(&cfg.GoveeModel, "GOVEE_MODEL")
	setStr(&cfg.GoveeCloudURL, "GOVEE_CLOUD_URL")

	setStr(&cfg.DeviceKind, "DEVICE_KIND")
	setStr(&cfg.HueBridgeIP, "HUE_BRIDGE_IP")
	setStr(&cfg.HueUsername, "HUE_USERNAME")
	setStr(&cfg.HueLight, "HUE_LIGHT")

	setDur(&cfg.IdlePollInterval, "IDLE_POLL_INTERVAL")
	setDur(&cfg.ActivePollInterval, "ACTIVE_POLL_INTERVAL")

	fx := &cfg.Effects
	setStr(&fx.MyTurnColor, "MY_TURN_COLOR")
	setInt(&fx.MyTurnBrightness, "MY_TURN_BRIGHTNESS")
	setStr(&fx.OpponentColor, "OPPONENT_COLOR")
	setInt(&fx.OpponentBrightness, "OPPONENT_BRIGHTNESS")
	setBool(&fx.CheckEnabled, "CHECK_ENABLED")
	setStr(&fx.CheckColor, "CHECK_COLOR")
	setInt(&fx.CheckBrightness, "CHECK_BRIGHTNESS")
	setInt(&fx.CheckBlinkCount, "CHECK_BLINK_COUNT")
	setBool(&fx.CheckHold, "CHECK_HOLD")
	setBool(&fx.TimePressureEnabled, "TIME_PRESSURE_ENABLED")
	setFloat(&fx.WarnSeconds, "TIME_WARN_SECONDS")
	setFloat(&fx.CriticalSeconds, "TIME_CRITICAL_SECONDS")
	setBool(&fx.MoveFlashEnabled, "MOVE_FLASH_ENABLED")
	setStr(&fx.MoveFlashColor, "MOVE_FLASH_COLOR")
	setInt(&fx.MoveFlashBrightness, "MOVE_FLASH_BRIGHTNESS")
	setDur(&fx.MoveFlashInterval, "MOVE_FLASH_INTERVAL")
	setStr(&fx.RestoreColor, "RESTORE_COLOR")
	setInt(&fx.RestoreBrightness, "RESTORE_BRIGHTNESS")
}

func (c *AppConfig) validate() error {
	var missing []string
	if c.LichessToken == "" {
		missing = append(missing, "LICHESS_TOKEN")
	}
	switch c.DeviceKind {
	case DeviceGovee:
		if c.GoveeAPIKey == "" {
			missing = append(missing, "GOVEE_API_KEY")
		}
		if c.GoveeDeviceMAC == "" {
			missing = append(missing, "GOVEE_DEVICE_MAC")
		}
	case DeviceHue:
		if c.HueBridgeIP == "" {
			missing = append(missing, "HUE_BRIDGE_IP")
		}
		if c.HueUsername == "" {
			missing = append(missing, "HUE_USERNAME")
		}
	default:
		return fmt.Errorf("unknown DEVICE_KIND %q", c.DeviceKind)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Effects.CriticalSeconds > c.Effects.WarnSeconds {
		return fmt.Errorf("TIME_CRITICAL_SECONDS (%v) must not exceed TIME_WARN_SECONDS (%v)",
			c.Effects.CriticalSeconds, c.Effects.WarnSeconds)
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDur(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}
