package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Proxies whose X-Forwarded-For / X-Real-IP headers are believed for the client IP.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// Storage.
	StoreBackend      string `mapstructure:"STORE_BACKEND"` // "mongo" or "memory"
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	MongoTransactions bool   `mapstructure:"MONGO_TRANSACTIONS"`

	// Admin authorization.
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTLMin  int    `mapstructure:"ADMIN_TOKEN_TTL_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB     int    `mapstructure:"REDIS_LOCK_DB"`
	RedisAuthDB     int    `mapstructure:"REDIS_AUTH_DB"`
	RedisTaskDB     int    `mapstructure:"REDIS_TASK_DB"`
	LockBackend     string `mapstructure:"LOCK_BACKEND"` // "redis" or "local"
	LockTTLSeconds  int    `mapstructure:"LOCK_TTL_SECONDS"`

	// Background worker.
	EnableWorker     bool   `mapstructure:"ENABLE_WORKER"`
	OverdueSweepCron string `mapstructure:"OVERDUE_SWEEP_CRON"`

	// Billing defaults.
	DefaultCurrency string `mapstructure:"DEFAULT_CURRENCY"`
	InvoiceDueDays  int    `mapstructure:"INVOICE_DUE_DAYS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("TRUSTED_PROXIES", []string{"127.0.0.1", "::1"})
	viper.SetDefault("STORE_BACKEND", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "agencyhub")
	viper.SetDefault("MONGO_TRANSACTIONS", true)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_EMAIL", "admin@agencyhub.local")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("ADMIN_TOKEN_TTL_MIN", 720)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_TASK_DB", 2)
	viper.SetDefault("LOCK_BACKEND", "redis")
	viper.SetDefault("LOCK_TTL_SECONDS", 15)
	viper.SetDefault("ENABLE_WORKER", false)
	viper.SetDefault("OVERDUE_SWEEP_CRON", "@every 1h")
	viper.SetDefault("DEFAULT_CURRENCY", "BDT")
	viper.SetDefault("INVOICE_DUE_DAYS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UsesMemoryStore reports whether the process runs without MongoDB.
func UsesMemoryStore() bool {
	return AppConfig.StoreBackend == "memory"
}
