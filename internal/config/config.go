// Package config loads packbot settings from an optional YAML file, dotenv
// files and PACKBOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	rules "github.com/prilive-com/packbot/internal/validate"
)

// EnvPrefix is prepended to every environment key, so telegram.token is
// read from PACKBOT_TELEGRAM_TOKEN.
const EnvPrefix = "PACKBOT"

type TelegramConfig struct {
	Token          string        `mapstructure:"token" validate:"required,bottoken"`
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	PollingTimeout int           `mapstructure:"polling_timeout" validate:"gte=0,lte=60"`
	PollingLimit   int           `mapstructure:"polling_limit" validate:"gte=1,lte=100"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=memory postgres"`
	DSN      string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	MaxConns int    `mapstructure:"max_conns" validate:"gte=1"`
}

type CooldownConfig struct {
	Backend    string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Interval   time.Duration `mapstructure:"interval" validate:"gt=0"`
	MaxEntries int           `mapstructure:"max_entries" validate:"gte=1"`
	RedisURL   string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
}

// AccessConfig enables the subscription gate when both fields are set.
type AccessConfig struct {
	ChannelID  int64  `mapstructure:"channel_id"`
	ChannelURL string `mapstructure:"channel_url" validate:"omitempty,channelurl"`
}

// Enabled reports whether the subscription gate is configured.
func (a AccessConfig) Enabled() bool {
	return a.ChannelID != 0 && a.ChannelURL != ""
}

type MediaConfig struct {
	FFmpegPath    string        `mapstructure:"ffmpeg_path" validate:"required"`
	TempDir       string        `mapstructure:"temp_dir"`
	MaxInputBytes int64         `mapstructure:"max_input_bytes" validate:"gt=0"`
	SettleDelay   time.Duration `mapstructure:"settle_delay" validate:"gte=0"`
	DefaultEmoji  string        `mapstructure:"default_emoji" validate:"required"`
}

type DialogueConfig struct {
	DraftTTL      time.Duration `mapstructure:"draft_ttl" validate:"gt=0"`
	RemovalTTL    time.Duration `mapstructure:"removal_ttl" validate:"gt=0"`
	SweepSchedule string        `mapstructure:"sweep_schedule" validate:"required"`
}

type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Config is the full process configuration.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Store    StoreConfig    `mapstructure:"store"`
	Cooldown CooldownConfig `mapstructure:"cooldown"`
	Access   AccessConfig   `mapstructure:"access"`
	Media    MediaConfig    `mapstructure:"media"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Health   HealthConfig   `mapstructure:"health"`
	Log      LogConfig      `mapstructure:"log"`
}

// Options controls where Load looks for input.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty, packbot.yaml is
	// searched in the working directory and ./config; a missing file is fine.
	ConfigFile string
	// EnvFiles are loaded before reading the environment. Variables already
	// set are never overridden. Missing files are skipped.
	EnvFiles []string
}

// DefaultOptions looks for .env.local and .env next to the binary.
func DefaultOptions() Options {
	return Options{EnvFiles: []string{".env.local", ".env"}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := rules.Register(v); err != nil {
		panic(err)
	}
	return v
}

// Load reads, decodes and validates the configuration.
func Load(opts Options) (*Config, error) {
	for _, f := range opts.EnvFiles {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("packbot")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return &ConfigError{Fields: fields, Err: err}
		}
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// ConfigError lists the settings that failed validation.
type ConfigError struct {
	Fields []string
	Err    error
}

func (e *ConfigError) Error() string {
	return "packbot/config: invalid settings: " + strings.Join(e.Fields, ", ")
}

func (e *ConfigError) Unwrap() error { return e.Err }

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.polling_timeout", 30)
	v.SetDefault("telegram.polling_limit", 100)
	v.SetDefault("telegram.request_timeout", "60s")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.max_conns", 10)

	v.SetDefault("cooldown.backend", "memory")
	v.SetDefault("cooldown.interval", "500ms")
	v.SetDefault("cooldown.max_entries", 10000)
	v.SetDefault("cooldown.redis_url", "")

	v.SetDefault("access.channel_id", 0)
	v.SetDefault("access.channel_url", "")

	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.temp_dir", "")
	v.SetDefault("media.max_input_bytes", 20<<20)
	v.SetDefault("media.settle_delay", "1s")
	v.SetDefault("media.default_emoji", "😀")

	v.SetDefault("dialogue.draft_ttl", "30m")
	v.SetDefault("dialogue.removal_ttl", "10m")
	v.SetDefault("dialogue.sweep_schedule", "0 */5 * * * *")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.bucket", "packbot-stickers")
	v.SetDefault("archive.use_ssl", false)
	v.SetDefault("archive.region", "us-east-1")

	v.SetDefault("health.addr", ":8081")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
