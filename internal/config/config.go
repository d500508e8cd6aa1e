// Package config loads the collector daemon's configuration from a
// YAML or TOML file, the environment, and viper defaults, layering a
// config file, COLLECTOR_-prefixed env vars, and per-field BindEnv
// overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"telemetry-collector/internal/collectorerr"
)

// DatabaseConfig carries the connection parameters for the relational
// store behind the collector.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LoggingConfig controls the slog handler installed at startup.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`    // debug|info|warn|error
	Format   string `mapstructure:"format"`   // text|json
	FilePath string `mapstructure:"filePath"` // optional rotating log file, in addition to stdout
}

// Config is the full set of daemon knobs.
type Config struct {
	IngressPort int            `mapstructure:"ingressPort"`
	SkipAuth    bool           `mapstructure:"skipAuth"`
	LogBots     bool           `mapstructure:"logBots"`
	Game        string         `mapstructure:"game"`
	ConfigWatch bool           `mapstructure:"configWatch"`
	WeaponsPath string         `mapstructure:"weaponsPath"` // optional weapon override file, read once at startup
	Database    DatabaseConfig `mapstructure:"database"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// Load reads "collector.yml", falling back to "collector.toml", then
// applies COLLECTOR_-prefixed environment overrides. A missing config
// file is not fatal: defaults are returned so a dev checkout can still
// run with SKIP_AUTH=true and no file at all.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env, ignored if absent

	viper.SetConfigName("collector")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/telemetry-collector")

	viper.SetDefault("ingressPort", 27500)
	viper.SetDefault("game", "cstrike")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COLLECTOR")

	viper.BindEnv("ingressPort", "INGRESS_PORT")
	viper.BindEnv("skipAuth", "SKIP_AUTH")
	viper.BindEnv("logBots", "LOG_BOTS")
	viper.BindEnv("game", "GAME")
	viper.BindEnv("configWatch", "CONFIG_WATCH")
	viper.BindEnv("weaponsPath", "WEAPONS_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("logging.format", "LOG_FORMAT")
	viper.BindEnv("logging.filePath", "LOG_FILE_PATH")
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.sslmode", "DB_SSLMODE")

	viper.SetConfigType("yml")
	err := viper.ReadInConfig()
	if err != nil {
		viper.SetConfigType("toml")
		err = viper.ReadInConfig()
		if err != nil {
			var cfg Config
			if uerr := viper.Unmarshal(&cfg); uerr != nil {
				return nil, collectorerr.Config("unmarshal default config", uerr)
			}
			return &cfg, nil
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, collectorerr.Config("unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, collectorerr.Config("validate config", err)
	}

	return &cfg, nil
}

// Validate rejects configurations that can never serve the daemon
// correctly outside of dev/skip-auth mode.
func (c *Config) Validate() error {
	if c.IngressPort <= 0 || c.IngressPort > 65535 {
		return fmt.Errorf("ingressPort %d is out of range", c.IngressPort)
	}
	if !c.SkipAuth {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required when skipAuth is false")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required when skipAuth is false")
		}
	}
	return nil
}

// ConnString builds a libpq-style connection string from DatabaseConfig.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

const exampleConfig = `# telemetry-collector example configuration
ingressPort: 27500
skipAuth: false
logBots: false
game: cstrike
configWatch: true
weaponsPath: weapon-overrides.yml

database:
  host: 127.0.0.1
  port: 5432
  user: collector
  password: ""
  name: telemetry
  sslmode: disable

logging:
  level: info
  format: text
`

// GenerateExample writes a starter YAML config file to path.
func GenerateExample(path string) error {
	return os.WriteFile(path, []byte(exampleConfig), 0o644)
}

// Exists reports whether a collector config file is present in the
// working directory.
func Exists() bool {
	for _, name := range []string{"collector.yml", "collector.yaml", "collector.toml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// Watch fires onChange with a freshly reloaded Config every time the
// config file on disk changes, for the configWatch knob. It runs an
// fsnotify.NewWatcher loop gated on event.Has(fsnotify.Write), applied
// to the config file rather than a game log file. The returned stop
// func closes the underlying watcher.
func Watch(logger *slog.Logger, onChange func(*Config)) (stop func(), err error) {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, collectorerr.Config("failed to create config watcher", err)
	}

	if err := watcher.Add(filepath.Dir(configFile)); err != nil {
		watcher.Close()
		return nil, collectorerr.Config("failed to watch config directory", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(configFile) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				cfg, loadErr := Load()
				if loadErr != nil {
					logger.Warn("config reload failed", "error", loadErr)
					continue
				}
				onChange(cfg)

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", watchErr)

			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
