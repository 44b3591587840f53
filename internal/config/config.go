package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	IrisBaseURL string `yaml:"iris-base-url" env:"IRIS_BASE_URL" env-required:"true"`
	IrisWSURL   string `yaml:"iris-ws-url" env:"IRIS_WS_URL" env-required:"true"`
	// http | ws | auto
	Transport string `yaml:"transport" env:"IRIS_TRANSPORT" env-default:"http"`
	DryRun    bool   `yaml:"dry-run" env:"DRY_RUN" env-default:"false"`

	BotPrefix string `yaml:"bot-prefix" env:"BOT_PREFIX" env-required:"true"`

	XUserID    string `yaml:"x-user-id" env:"X_USER_ID"`
	XUserEmail string `yaml:"x-user-email" env:"X_USER_EMAIL"`
	XSessionID string `yaml:"x-session-id" env:"X_SESSION_ID"`

	RedisURL    string `yaml:"redis-url" env:"REDIS_URL"`
	DatabaseURL string `yaml:"database-url" env:"DATABASE_URL"`

	AllowedRooms []string `yaml:"allowed-rooms" env:"ALLOWED_ROOMS" env-separator:","`

	// 0 disables the idle reaper.
	IdleTimeout        time.Duration `yaml:"idle-timeout" env:"TTT_IDLE_TIMEOUT" env-default:"0s"`
	ReapInterval       time.Duration `yaml:"reap-interval" env:"TTT_REAP_INTERVAL" env-default:"30s"`
	WSReconnectRetries int           `yaml:"ws-reconnect-retries" env:"IRIS_WS_RECONNECT" env-default:"5"`

	MessagesDir string `yaml:"messages-dir" env:"MESSAGES_DIR"`

	Log Log `yaml:"log"`
}

// Log settings. cleanenv applies env-default to zero values, so a YAML false
// cannot switch off Console or ToFile; use LOG_TO_CONSOLE / LOG_TO_FILE for that.
type Log struct {
	Level   string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format  string `yaml:"format" env:"LOG_FORMAT" env-default:"legacy"`
	Console bool   `yaml:"console" env:"LOG_TO_CONSOLE" env-default:"true"`
	ToFile  bool   `yaml:"to-file" env:"LOG_TO_FILE" env-default:"true"`
	File    string `yaml:"file" env:"LOG_FILE" env-default:"logs/bot.log"`
	Caller  bool   `yaml:"caller" env:"LOG_CALLER" env-default:"false"`
}

// LoadEnvFile loads a .env file into the process environment. A missing default
// file is fine; a missing explicitly named file is an error.
func LoadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the YAML file at path (environment variables still override it) or,
// with an empty path, the environment alone.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.IrisBaseURL = strings.TrimSpace(c.IrisBaseURL)
	c.IrisWSURL = strings.TrimSpace(c.IrisWSURL)
	c.BotPrefix = strings.TrimSpace(c.BotPrefix)
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	rooms := c.AllowedRooms[:0]
	for _, r := range c.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			rooms = append(rooms, s)
		}
	}
	c.AllowedRooms = rooms
}

func (c *AppConfig) Validate() error {
	if c.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if c.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if c.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	switch c.Transport {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("unknown IRIS_TRANSPORT %q", c.Transport)
	}
	if c.IdleTimeout < 0 {
		return errors.New("TTT_IDLE_TIMEOUT must not be negative")
	}
	return nil
}

// RoomAllowed reports whether room passes the allow-list; an empty list allows every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// IrisHeaders returns the X-User-* headers for the Iris HTTP and WebSocket handshakes.
func (c *AppConfig) IrisHeaders() map[string]string {
	m := map[string]string{}
	if c.XUserID != "" {
		m["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		m["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		m["X-Session-Id"] = c.XSessionID
	}
	return m
}

// LogFile is the file path obslog should write to, empty when file logging is off.
func (l Log) LogFile() string {
	if !l.ToFile {
		return ""
	}
	return l.File
}
