// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ストアの種類
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// MinSessionSecretLength はセッション署名鍵に要求する最小バイト数です。
const MinSessionSecretLength = 32

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// セッション設定
	SessionSecret  string        // セッション署名用の秘密鍵
	SessionMaxAge  time.Duration // セッションの絶対有効期限
	SessionIdleTTL time.Duration // 無操作タイムアウト

	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// アカウントストア設定
	StoreDriver   string // memory, redis, postgres
	StoreRedisURL string // Redis接続URL
	DatabaseURL   string // PostgreSQL接続文字列

	// パスワードハッシュ
	BcryptCost int

	// ログ・メトリクス
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionMaxAge:  time.Duration(getEnvAsInt("SESSION_MAX_AGE_MINUTES", 720)) * time.Minute,
		SessionIdleTTL: time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,

		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8080"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		StoreRedisURL: getEnv("STORE_REDIS_URL", "redis://127.0.0.1:6379/0"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// IsRelease は本番モードかどうかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Validate は設定の妥当性を検証します。
// フラグによる上書きを反映した後に呼び出してください。
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreRedis:
		if c.StoreRedisURL == "" {
			return fmt.Errorf("STORE_REDIS_URL is required when STORE_DRIVER=redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (memory, redis, postgres)", c.StoreDriver)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SessionMaxAge <= 0 || c.SessionIdleTTL <= 0 {
		return fmt.Errorf("session lifetimes must be positive")
	}

	// ローカル開発では署名鍵は任意（起動時に一時鍵を生成する）
	if c.IsRelease() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.StoreDriver == StoreMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in release mode")
		}
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLength)
	}

	return nil
}

// AllowedOrigins はCORS許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
