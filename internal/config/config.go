package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	SQLite    *SQLiteConfig    `mapstructure:"sqlite"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Kafka     *KafkaConfig     `mapstructure:"kafka"`
	Admin     *AdminConfig     `mapstructure:"admin"`
	Payment   *PaymentConfig   `mapstructure:"payment"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	PublicURL          string        `mapstructure:"public_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	SecureCookies      bool          `mapstructure:"secure_cookies"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DB          string `mapstructure:"db"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// SQLiteConfig switches storage to a local file when Path is set.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	CartTTL        time.Duration `mapstructure:"cart_ttl"`
	StatusCacheTTL time.Duration `mapstructure:"status_cache_ttl"`
	Channel        string        `mapstructure:"channel"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Buffer  int      `mapstructure:"buffer"`
}

type AdminConfig struct {
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type PaymentConfig struct {
	// Provider is "midtrans", "stripe" or empty when online payment is disabled.
	Provider string          `mapstructure:"provider"`
	Midtrans *MidtransConfig `mapstructure:"midtrans"`
	Stripe   *StripeConfig   `mapstructure:"stripe"`
}

type MidtransConfig struct {
	ServerKey    string `mapstructure:"server_key"`
	ClientKey    string `mapstructure:"client_key"`
	IsProduction bool   `mapstructure:"is_production"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type RateLimitConfig struct {
	Orders string `mapstructure:"orders"`
	Login  string `mapstructure:"login"`
}

var ErrMissingSigningKey = errors.New("api.jwt_signing_key must be set")

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if conf.API.JWTSigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Warn("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "3000")
	v.SetDefault("api.session_ttl", 24*time.Hour)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.cart_ttl", 24*time.Hour)
	v.SetDefault("redis.status_cache_ttl", 5*time.Minute)
	v.SetDefault("redis.channel", "coffeeshop:notifications")
	v.SetDefault("kafka.topic", "coffeeshop.orders")
	v.SetDefault("kafka.buffer", 256)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.token_ttl", 12*time.Hour)
	v.SetDefault("payment.stripe.currency", "idr")
	v.SetDefault("rate_limit.orders", "30-M")
	v.SetDefault("rate_limit.login", "10-M")
}
