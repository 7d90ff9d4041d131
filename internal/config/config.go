package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	Secret     string        `mapstructure:"secret"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	DB         DB            `mapstructure:"db"`
	Hub        Hub           `mapstructure:"hub"`
}

type DB struct {
	Driver      string        `mapstructure:"driver"`
	DSN         string        `mapstructure:"dsn"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type Hub struct {
	InboxSize    int           `mapstructure:"inbox_size"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
	// IdleTTL of zero keeps idle room state forever.
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	SweepPeriod  time.Duration `mapstructure:"sweep_period"`
	Backpressure string        `mapstructure:"backpressure"`
}

var ErrNoJWTSecret = errors.New("jwt_secret is required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "change-me")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "watchparty.db")
	v.SetDefault("db.busy_timeout", "5s")
	v.SetDefault("hub.inbox_size", 1024)
	v.SetDefault("hub.drain_timeout", "5s")
	v.SetDefault("hub.idle_ttl", "0s")
	v.SetDefault("hub.sweep_period", "1m")
	v.SetDefault("hub.backpressure", "kick")
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then WATCHPARTY_*
// variables. bind may attach command-line flags, which win over everything.
func Load(bind func(*viper.Viper) error) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix("WATCHPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", fileName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks what serve needs and schema does not.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrNoJWTSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
