package config

import (
	"bubblerush/internal/session"
	"bubblerush/internal/targets"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             string `yaml:"port"`
	PanelWidth       int    `yaml:"panel_width"`
	PanelHeight      int    `yaml:"panel_height"`
	ControlBarHeight int    `yaml:"control_bar_height"`
	Difficulty       int    `yaml:"difficulty"`
	TickBaseMs       int    `yaml:"tick_base_ms"`
	SessionTTL       int    `yaml:"session_ttl_minutes"`
}

func defaults() Config {
	return Config{
		Port:             "8080",
		PanelWidth:       800,
		PanelHeight:      600,
		ControlBarHeight: 35,
		Difficulty:       5,
		TickBaseMs:       1000,
		SessionTTL:       60,
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.PanelWidth = getEnvInt("PANEL_WIDTH", cfg.PanelWidth)
	cfg.PanelHeight = getEnvInt("PANEL_HEIGHT", cfg.PanelHeight)
	cfg.ControlBarHeight = getEnvInt("CONTROL_BAR_HEIGHT", cfg.ControlBarHeight)
	cfg.Difficulty = getEnvInt("DIFFICULTY", cfg.Difficulty)
	cfg.TickBaseMs = getEnvInt("TICK_BASE_MS", cfg.TickBaseMs)
	cfg.SessionTTL = getEnvInt("SESSION_TTL_MINUTES", cfg.SessionTTL)
	return cfg, nil
}

// Game returns the session settings this config describes.
func (c Config) Game() session.Config {
	cfg := session.DefaultConfig()
	cfg.Difficulty = c.Difficulty
	cfg.BaseInterval = time.Duration(c.TickBaseMs) * time.Millisecond
	cfg.IntervalStep = cfg.BaseInterval / 10
	cfg.Bounds = targets.Bounds{
		Width:  c.PanelWidth,
		Height: c.PanelHeight,
		Top:    c.ControlBarHeight,
	}
	return cfg
}

func (c Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
