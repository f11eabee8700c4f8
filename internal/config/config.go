package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	defaultBin                   = "cmus-remote"
	defaultCommandTimeout        = 5 * time.Second
	defaultRefreshInterval       = 600 * time.Second
	defaultNotificationTimeoutMs = 3000
)

// AppConfig holds application configuration
type AppConfig struct {
	// Notifications toggles desktop notifications.
	Notifications bool
	// CoverArt toggles cover thumbnail resolution.
	CoverArt bool
	// CmusRemoteBin is the player control binary.
	CmusRemoteBin string
	// CommandTimeout bounds every player command.
	CommandTimeout time.Duration
	// RefreshInterval is the periodic resynchronization timer.
	RefreshInterval time.Duration
	// NotificationTimeoutMs is handed to the notification server.
	NotificationTimeoutMs int32
}

// fileConfig is the on-disk TOML shape. Pointers distinguish "absent" from
// "false"/zero.
type fileConfig struct {
	Notifications         *bool  `toml:"notifications"`
	CoverArt              *bool  `toml:"cover_art"`
	CmusRemoteBin         string `toml:"cmus_remote_bin"`
	CommandTimeoutMs      int    `toml:"command_timeout_ms"`
	RefreshIntervalSec    int    `toml:"refresh_interval_sec"`
	NotificationTimeoutMs int    `toml:"notification_timeout_ms"`
}

// New loads configuration: defaults, then the optional TOML file at
// $XDG_CONFIG_HOME/soundbridge/config.toml, then SOUNDBRIDGE_* environment
// overrides.
func New(logger *zap.Logger) *AppConfig {
	cfg := &AppConfig{
		Notifications:         true,
		CoverArt:              true,
		CmusRemoteBin:         defaultBin,
		CommandTimeout:        defaultCommandTimeout,
		RefreshInterval:       defaultRefreshInterval,
		NotificationTimeoutMs: defaultNotificationTimeoutMs,
	}

	if path := configFilePath(); path != "" {
		cfg.applyFile(logger, path)
	}
	cfg.applyEnv(logger)

	logger.Info("Configuration loaded",
		zap.Bool("notifications", cfg.Notifications),
		zap.Bool("coverArt", cfg.CoverArt),
		zap.String("cmusRemoteBin", cfg.CmusRemoteBin),
		zap.Duration("commandTimeout", cfg.CommandTimeout),
		zap.Duration("refreshInterval", cfg.RefreshInterval))
	return cfg
}

func configFilePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "soundbridge", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "soundbridge", "config.toml")
}

func (c *AppConfig) applyFile(logger *zap.Logger, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Cannot read config file", zap.String("path", path), zap.Error(err))
		}
		return
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		logger.Warn("Cannot parse config file", zap.String("path", path), zap.Error(err))
		return
	}
	if fc.Notifications != nil {
		c.Notifications = *fc.Notifications
	}
	if fc.CoverArt != nil {
		c.CoverArt = *fc.CoverArt
	}
	if fc.CmusRemoteBin != "" {
		c.CmusRemoteBin = fc.CmusRemoteBin
	}
	if fc.CommandTimeoutMs > 0 {
		c.CommandTimeout = time.Duration(fc.CommandTimeoutMs) * time.Millisecond
	}
	if fc.RefreshIntervalSec > 0 {
		c.RefreshInterval = time.Duration(fc.RefreshIntervalSec) * time.Second
	}
	if fc.NotificationTimeoutMs > 0 {
		c.NotificationTimeoutMs = int32(fc.NotificationTimeoutMs)
	}
	logger.Debug("Config file applied", zap.String("path", path))
}

func (c *AppConfig) applyEnv(logger *zap.Logger) {
	if v := os.Getenv("SOUNDBRIDGE_NOTIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Notifications = b
		} else {
			logger.Warn("Invalid SOUNDBRIDGE_NOTIFICATIONS value", zap.String("value", v))
		}
	}
	if v := os.Getenv("SOUNDBRIDGE_COVER_ART"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CoverArt = b
		} else {
			logger.Warn("Invalid SOUNDBRIDGE_COVER_ART value", zap.String("value", v))
		}
	}
	if v := os.Getenv("SOUNDBRIDGE_CMUS_REMOTE"); v != "" {
		c.CmusRemoteBin = v
	}
	if v := os.Getenv("SOUNDBRIDGE_COMMAND_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CommandTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("SOUNDBRIDGE_REFRESH_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RefreshInterval = time.Duration(n) * time.Second
		}
	}
}
