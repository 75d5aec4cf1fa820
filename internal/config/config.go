package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fakeyou/internal/fakeyou"
)

// Settings is the typed view of the viper configuration.
type Settings struct {
	API struct {
		BaseURL    string        `mapstructure:"base_url"`
		StorageURL string        `mapstructure:"storage_url"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`
	Poll struct {
		Interval    time.Duration `mapstructure:"interval"`
		MaxAttempts int           `mapstructure:"max_attempts"`
	} `mapstructure:"poll"`
	Auth struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"auth"`
	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`
	Cache struct {
		Dir    string        `mapstructure:"dir"`
		MaxAge time.Duration `mapstructure:"max_age"`
	} `mapstructure:"cache"`
	History struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"history"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every setting.
func SetDefaults() {
	viper.SetDefault("api.base_url", fakeyou.DefaultBaseURL)
	viper.SetDefault("api.storage_url", fakeyou.DefaultStorageURL)
	viper.SetDefault("api.timeout", fakeyou.DefaultTimeout)
	viper.SetDefault("poll.interval", fakeyou.DefaultPollInterval)
	viper.SetDefault("poll.max_attempts", 0) // unbounded
	viper.SetDefault("auth.username", "")
	viper.SetDefault("auth.password", "")
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("cache.dir", DataDir())
	viper.SetDefault("cache.max_age", 24*time.Hour)
	viper.SetDefault("history.path", filepath.Join(DataDir(), "history.db"))
	viper.SetDefault("log.level", "warn")
}

// Init wires viper to the config file, FAKEYOU_* environment variables and an
// optional .env file in the working directory.
func Init() error {
	_ = godotenv.Load()

	viper.SetConfigName("fakeyou")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.fakeyou")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("fakeyou")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("auth.username", "FAKEYOU_AUTH_USERNAME", "FAKEYOU_USERNAME")
	_ = viper.BindEnv("auth.password", "FAKEYOU_AUTH_PASSWORD", "FAKEYOU_PASSWORD")

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load decodes the current viper state into Settings.
func Load() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &s, nil
}

// ClientOptions maps the settings onto client options.
func (s *Settings) ClientOptions() []fakeyou.Option {
	return []fakeyou.Option{
		fakeyou.WithBaseURL(s.API.BaseURL),
		fakeyou.WithStorageURL(s.API.StorageURL),
		fakeyou.WithTimeout(s.API.Timeout),
		fakeyou.WithPollInterval(s.Poll.Interval),
		fakeyou.WithMaxPollAttempts(s.Poll.MaxAttempts),
	}
}

// DataDir is where the catalog snapshot and job history live.
func DataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "fakeyou")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".fakeyou", "cache")
	}
	return "cache"
}
