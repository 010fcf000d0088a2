package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/worktimer/worktimer/internal/matcher"
)

// Config holds the process configuration. User-facing state (work apps,
// alert settings) is persisted in the database, not here.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // empty means ~/.config/worktimer/worktimer.db
}

// TrackerConfig holds sampling and retention behavior
type TrackerConfig struct {
	Matcher         string `yaml:"matcher"`     // "keyword" or "executable"
	SessionCap      int    `yaml:"session_cap"` // 0 selects the matcher's default
	PauseWhenLocked bool   `yaml:"pause_when_locked"`
}

type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"`
	LogFile string `yaml:"log_file"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	uid := os.Getuid()
	return &Config{
		Tracker: TrackerConfig{
			Matcher:         matcher.ExecutableName,
			PauseWhenLocked: true,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/worktimer-%d.pid", uid),
			LogFile: fmt.Sprintf("/tmp/worktimer-%d.log", uid),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + uid%50000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file and the
// environment, in that order of precedence. An empty path falls back to
// WORKTIMER_CONFIG; a path that was given explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := matcher.New(c.Tracker.Matcher); err != nil {
		return err
	}

	if c.Tracker.SessionCap < 0 {
		return fmt.Errorf("session cap cannot be negative, got %d", c.Tracker.SessionCap)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// Strategy returns the configured matching strategy.
func (c *Config) Strategy() (matcher.Strategy, error) {
	return matcher.New(c.Tracker.Matcher)
}

// EffectiveSessionCap resolves a zero SessionCap to the strategy default.
func (c *Config) EffectiveSessionCap(s matcher.Strategy) int {
	if c.Tracker.SessionCap > 0 {
		return c.Tracker.SessionCap
	}
	return s.SessionCap()
}

// BaseURL is the address the CLI uses to reach a running daemon.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Web.Host, c.Web.Port)
}

func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Matcher: %s
    Session Cap: %d
    Pause When Locked: %v
  Daemon:
    PID File: %s
    Log File: %s
  Web:
    Host: %s
    Port: %d
  Logging:
    Level: %s
    Development: %v`,
		c.Database.Path,
		c.Tracker.Matcher,
		c.Tracker.SessionCap,
		c.Tracker.PauseWhenLocked,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Web.Host,
		c.Web.Port,
		c.Logging.Level,
		c.Logging.Development,
	)
}
