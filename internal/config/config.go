package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// UpstreamURLKey is the environment variable naming the spreadsheet web-app endpoint.
const UpstreamURLKey = "APPSCRIPT_WEB_APP_URL"

// Config holds runtime configuration shared across the application.
// It is loaded once at start and passed by value; nothing mutates it afterwards.
type Config struct {
	Addr               string        `mapstructure:"HTTP_ADDR" validate:"required"`
	UpstreamURL        string        `mapstructure:"APPSCRIPT_WEB_APP_URL" validate:"omitempty,url"`
	AllowedOrigins     []string      `mapstructure:"-"`
	MaxRequestBody     int64         `mapstructure:"WARRANTY_MAX_BODY_BYTES" validate:"gt=0"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"gte=0"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST" validate:"gte=0"`
	// TrustProxyHeaders は X-Forwarded-For / X-Real-IP を信頼するか。
	// 信頼できるリバースプロキシの背後でのみ true にする。false ならレート制限は接続元アドレスで判定する。
	TrustProxyHeaders bool `mapstructure:"TRUST_PROXY_HEADERS"`
	LogLevel           string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat          string        `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ReadHeaderTimeout  time.Duration `mapstructure:"READ_HEADER_TIMEOUT" validate:"gt=0"`
}

// UpstreamConfigured reports whether the relay has somewhere to forward to.
func (c Config) UpstreamConfigured() bool {
	return strings.TrimSpace(c.UpstreamURL) != ""
}

// Load reads .env (when present), config.yaml (when present) and the process
// environment, and returns a validated Config.
func Load() (Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config.yaml の読み込みに失敗: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault(UpstreamURLKey, "")
	v.SetDefault("API_ALLOWED_ORIGINS", "*")
	v.SetDefault("WARRANTY_MAX_BODY_BYTES", 25<<20)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("READ_HEADER_TIMEOUT", "5s")
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定の展開に失敗: %w", err)
	}

	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.UpstreamURL = strings.TrimSpace(cfg.UpstreamURL)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.AllowedOrigins = parseList(v.GetString("API_ALLOWED_ORIGINS"), []string{"*"})

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile は .env があれば読み込む。既存の環境変数は上書きしない。
func loadEnvFile() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
