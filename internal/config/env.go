package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// EnvConfigFile names the YAML config file when no --config flag is given.
const EnvConfigFile = "WORKTIMER_CONFIG"

// envOverrides lists every supported variable. Unset variables leave the
// pointer nil so file and default values survive.
type envOverrides struct {
	DBPath          *string `envconfig:"WORKTIMER_DB_PATH"`
	Matcher         *string `envconfig:"WORKTIMER_MATCHER"`
	SessionCap      *int    `envconfig:"WORKTIMER_SESSION_CAP"`
	PauseWhenLocked *bool   `envconfig:"WORKTIMER_PAUSE_WHEN_LOCKED"`
	PIDFile         *string `envconfig:"WORKTIMER_PID_FILE"`
	WebHost         *string `envconfig:"WORKTIMER_WEB_HOST"`
	WebPort         *int    `envconfig:"WORKTIMER_WEB_PORT"`
	LogLevel        *string `envconfig:"WORKTIMER_LOG_LEVEL"`
	LogDev          *bool   `envconfig:"WORKTIMER_LOG_DEV"`
	LogFile         *string `envconfig:"WORKTIMER_LOG_FILE"`
}

// LoadFromEnv applies environment variables on top of cfg
func LoadFromEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return errors.Wrap(err, "failed to read environment")
	}

	if env.DBPath != nil {
		cfg.Database.Path = *env.DBPath
	}
	if env.Matcher != nil {
		cfg.Tracker.Matcher = *env.Matcher
	}
	if env.SessionCap != nil {
		cfg.Tracker.SessionCap = *env.SessionCap
	}
	if env.PauseWhenLocked != nil {
		cfg.Tracker.PauseWhenLocked = *env.PauseWhenLocked
	}
	if env.PIDFile != nil {
		cfg.Daemon.PIDFile = *env.PIDFile
	}
	if env.WebHost != nil {
		cfg.Web.Host = *env.WebHost
	}
	if env.WebPort != nil {
		cfg.Web.Port = *env.WebPort
	}
	if env.LogLevel != nil {
		cfg.Logging.Level = *env.LogLevel
	}
	if env.LogDev != nil {
		cfg.Logging.Development = *env.LogDev
	}
	if env.LogFile != nil {
		cfg.Logging.File = *env.LogFile
	}
	return nil
}

// New creates a Config from defaults and the environment, ignoring errors
// from malformed variables.
func New() *Config {
	cfg := Default()
	_ = LoadFromEnv(cfg)
	return cfg
}
