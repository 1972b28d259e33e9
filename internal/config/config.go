package config

import (
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ServerConfig holds configuration variables for the HTTP server.
type ServerConfig struct {
	Host string
	Port string
}

// Addr returns the listen address for the server.
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds configuration variables for the embedded database.
type DatabaseConfig struct {
	// Dir is the path the database stores its data in. A leading "~"
	// is expanded to the user's home directory.
	Dir string
}

// AuthConfig holds settings for issuing and verifying bearer tokens.
type AuthConfig struct {
	// Secret signs access tokens. Must be overridden outside development.
	Secret string

	// TokenLife is how long issued tokens remain valid.
	TokenLife time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Config holds configuration information for the program.
type Config struct {
	Server   *ServerConfig
	Database *DatabaseConfig
	Auth     *AuthConfig
	Log      *LogConfig
	Remain   map[string]interface{} `mapstructure:",remain"`
}

// Current is the current configuration for the server.
var Current Config

func setConfigDefaults() {
	viper.SetDefault("server", map[string]interface{}{
		"host": "localhost",
		"port": "3001",
	})

	viper.SetDefault("database", map[string]interface{}{
		"dir": "~/.dialbook/data",
	})

	viper.SetDefault("auth", map[string]interface{}{
		"secret":    "dev-secret",
		"tokenlife": "1h",
	})

	viper.SetDefault("log", map[string]interface{}{
		"level":  "info",
		"pretty": false,
	})
}

// LoadConfig loads the config file from disk, falling back to defaults
// when none exists. Environment variables prefixed with DIALBOOK_
// override file values.
func LoadConfig() error {
	viper.AddConfigPath("/etc/dialbook/")
	viper.AddConfigPath("$HOME/.dialbook")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	setConfigDefaults()

	viper.SetEnvPrefix("dialbook")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "read config file")
		}
		log.Info().Msg("no configuration found, running with defaults")
	}

	err := viper.Unmarshal(&Current, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return errors.Wrap(err, "unmarshal config")
	}

	dir, err := homedir.Expand(Current.Database.Dir)
	if err != nil {
		return errors.Wrap(err, "expand database dir")
	}
	Current.Database.Dir = filepath.Clean(dir)

	return nil
}
