package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nextchow/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Cart     CartConfig     `mapstructure:"cart"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Paystack PaystackConfig `mapstructure:"paystack"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Service:    "nextchow-api",
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`    // 数据库连接串
	LogLevel string             `mapstructure:"log_level"`
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// MongoConfig MongoDB 配置（购物车文档存储）
type MongoConfig struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// CartConfig 购物车配置
type CartConfig struct {
	MaxPacks int    `mapstructure:"max_packs"`
	Store    string `mapstructure:"store"` // database / mongodb
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	Currency                 string `mapstructure:"currency"`
	LockTTLSeconds           int    `mapstructure:"lock_ttl_seconds"`
	LockWaitSeconds          int    `mapstructure:"lock_wait_seconds"`
	ReconcileAfterMinutes    int    `mapstructure:"reconcile_after_minutes"`
	ReconcileIntervalSeconds int    `mapstructure:"reconcile_interval_seconds"`
}

// LockTTL 用户锁过期时间
func (c CheckoutConfig) LockTTL() time.Duration {
	return secondsOr(c.LockTTLSeconds, 30)
}

// LockWait 获取用户锁的最长等待时间
func (c CheckoutConfig) LockWait() time.Duration {
	return secondsOr(c.LockWaitSeconds, 5)
}

// ReconcileAfter 未发起支付的待处理订单保留时长
func (c CheckoutConfig) ReconcileAfter() time.Duration {
	if c.ReconcileAfterMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ReconcileAfterMinutes) * time.Minute
}

// ReconcileInterval 周期对账间隔
func (c CheckoutConfig) ReconcileInterval() time.Duration {
	return secondsOr(c.ReconcileIntervalSeconds, 60)
}

// PaystackConfig 支付网关配置
type PaystackConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	BaseURL        string        `mapstructure:"api_base_url"`
	CallbackURL    string        `mapstructure:"callback_url"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

// Timeout 网关请求超时
func (c PaystackConfig) Timeout() time.Duration {
	return secondsOr(c.TimeoutSeconds, 10)
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MaxFailures int `mapstructure:"max_failures"`
	OpenSeconds int `mapstructure:"open_seconds"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func secondsOr(value int, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// setDefaults 注册默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "nextchow.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/nextchow.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "nextchow")
	v.SetDefault("mongo.connect_timeout_seconds", 10)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.issuer", "nextchow")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "nc")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 10)
	v.SetDefault("cart.max_packs", 20)
	v.SetDefault("cart.store", "database")
	v.SetDefault("checkout.currency", "NGN")
	v.SetDefault("checkout.lock_ttl_seconds", 30)
	v.SetDefault("checkout.lock_wait_seconds", 5)
	v.SetDefault("checkout.reconcile_after_minutes", 30)
	v.SetDefault("checkout.reconcile_interval_seconds", 60)
	v.SetDefault("paystack.secret_key", "")
	v.SetDefault("paystack.api_base_url", "https://api.paystack.co")
	v.SetDefault("paystack.callback_url", "")
	v.SetDefault("paystack.timeout_seconds", 10)
	v.SetDefault("paystack.breaker.max_failures", 5)
	v.SetDefault("paystack.breaker.open_seconds", 30)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 从 config.yml 加载配置
func Load() *Config {
	cfg, err := LoadFrom(viper.GetViper())
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// LoadFrom 使用指定的 viper 实例加载配置
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	setDefaults(v)

	// 环境变量支持 (例如 paystack.secret_key -> PAYSTACK_SECRET_KEY)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Cart.MaxPacks <= 0 {
		cfg.Cart.MaxPacks = 20
	}
	cfg.Cart.Store = strings.ToLower(strings.TrimSpace(cfg.Cart.Store))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkoutLockMargin 结算锁在网关超时之外预留的落库时间
const checkoutLockMargin = 5 * time.Second

// validate 结算锁有效期需覆盖网关超时与落库余量
func (c *Config) validate() error {
	minTTL := c.Paystack.Timeout() + checkoutLockMargin
	if c.Checkout.LockTTL() < minTTL {
		return fmt.Errorf("checkout.lock_ttl_seconds (%s) must be at least paystack.timeout_seconds + %s (%s)",
			c.Checkout.LockTTL(), checkoutLockMargin, minTTL)
	}
	return nil
}

// IsWeakSecret 判断密钥是否过弱
func IsWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
