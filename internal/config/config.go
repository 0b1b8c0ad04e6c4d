// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// パスワードハッシュ方式
const (
	PasswordSchemeSHA512 = "sha512"
	PasswordSchemeBcrypt = "bcrypt"
)

// minSessionSecretLength はクッキー署名鍵として受け付ける最小バイト数です。
const minSessionSecretLength = 32

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// セッション設定
	SessionName   string // セッションクッキー名
	SessionSecret string // セッション署名用の秘密鍵
	CookieSecure  bool   // Secure 属性を付与するか
	CookieDomain  string // クッキーの Domain 属性
	CookiePath    string // クッキーの Path 属性

	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// データベース設定
	DatabasePath string // SQLiteデータベースファイルのパス

	// ログイン制御
	PasswordScheme  string        // sha512 または bcrypt
	LoginCooldown   time.Duration // 前回ログインから再ログインできるまでの時間
	SessionTimeout  time.Duration // ログインからセッションが失効するまでの時間
	LogoutBackdate  time.Duration // ログアウト時に last_login を巻き戻す時間
	CaptchaAfter    int           // CAPTCHA を表示する失敗回数
	PagePrefix      string        // ページゲートのリダイレクト先プレフィックス
	ThrottleRedis   string        // 試行回数制限用Redis接続URL（空ならメモリ）
	ThrottleMax     int           // ロックまでの失敗回数
	ThrottleWindow  time.Duration // 失敗回数を数える期間
	ThrottleLockout time.Duration // ロック時間
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		// セッション設定
		SessionName:   getEnv("SESSION_NAME", "TU_HAA"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		CookieSecure:  getEnvAsBool("SESSION_COOKIE_SECURE", false),
		CookieDomain:  getEnv("SESSION_COOKIE_DOMAIN", ""),
		CookiePath:    getEnv("SESSION_COOKIE_PATH", "/"),

		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// データベース設定
		DatabasePath: getEnv("DATABASE_PATH", "haa.db"),

		// ログイン制御
		PasswordScheme:  strings.ToLower(getEnv("PASSWORD_SCHEME", PasswordSchemeSHA512)),
		LoginCooldown:   getEnvAsSeconds("LOGIN_COOLDOWN_SECONDS", 900),
		SessionTimeout:  getEnvAsSeconds("SESSION_TIMEOUT_SECONDS", 900),
		LogoutBackdate:  getEnvAsSeconds("LOGOUT_BACKDATE_SECONDS", 3600),
		CaptchaAfter:    getEnvAsInt("CAPTCHA_AFTER_FAILURES", 3),
		PagePrefix:      strings.TrimRight(getEnv("PAGE_PREFIX", "/pages"), "/"),
		ThrottleRedis:   getEnv("THROTTLE_REDIS_URL", ""),
		ThrottleMax:     getEnvAsInt("THROTTLE_MAX_ATTEMPTS", 10),
		ThrottleWindow:  time.Duration(getEnvAsInt("THROTTLE_WINDOW_MINUTES", 15)) * time.Minute,
		ThrottleLockout: time.Duration(getEnvAsInt("THROTTLE_LOCKOUT_MINUTES", 10)) * time.Minute,
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate は設定の妥当性を検証します。
// セッションを安全に構成できない場合は起動させません。
func (c *Config) Validate() error {
	if c.SessionName == "" {
		return fmt.Errorf("SESSION_NAME must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	switch c.PasswordScheme {
	case PasswordSchemeSHA512, PasswordSchemeBcrypt:
	default:
		return fmt.Errorf("unknown PASSWORD_SCHEME: %q", c.PasswordScheme)
	}
	if c.LoginCooldown < 0 {
		return fmt.Errorf("LOGIN_COOLDOWN_SECONDS must not be negative")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_SECONDS must be positive")
	}
	if c.CaptchaAfter <= 0 {
		return fmt.Errorf("CAPTCHA_AFTER_FAILURES must be positive")
	}
	if c.ThrottleMax <= 0 || c.ThrottleWindow <= 0 || c.ThrottleLockout <= 0 {
		return fmt.Errorf("THROTTLE_* settings must be positive")
	}
	if c.GinMode == "release" && !c.CookieSecure {
		// 本番でも HTTP 配信を許容するため警告に留める
		log.Printf("warning: SESSION_COOKIE_SECURE is disabled in release mode")
	}

	return nil
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

// getEnvAsSeconds は秒数の環境変数を time.Duration として取得します。
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

// getEnvAsBool は環境変数を真偽値として取得します。
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
