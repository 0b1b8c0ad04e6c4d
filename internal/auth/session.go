package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/hostel-allotment/internal/config"
)

// セッションキー
const (
	KeyLoginID         = "login_id"
	KeyLoginString     = "login_string"
	KeyLastLogin       = "last_login"
	KeyLoginAttempts   = "login_attempts"
	KeyAllotmentStatus = "allotment_status"
	KeyProcessStatus   = "process_status"
	KeyIsAdmin         = "is_admin"
	KeyGroupSize       = "group_size"
	KeyLoginError      = "login_error"
	KeyLoginLimit      = "login_limit"
	KeyShowCaptcha     = "show_captcha"
	KeyCSRF            = "csrf_token"
)

// Session はサービスが必要とするセッション操作です。sessions.Session はこれを満たします。
type Session interface {
	Get(key interface{}) interface{}
	Set(key interface{}, val interface{})
	Delete(key interface{})
	Clear()
	Options(sessions.Options)
}

// ErrInsecureSession はセッションを安全に構成できない場合のエラーです。
var ErrInsecureSession = errors.New("could not initiate a safe session")

const minSecretLength = 32

// CookieOptions はセッションクッキーの属性を返します。
// MaxAge 0 はブラウザ終了で消える非永続クッキーです。
func CookieOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   0,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookieOptions は発行時と同じ属性のまま即時失効させるオプションを返します。
func ExpiredCookieOptions(opts sessions.Options) sessions.Options {
	opts.MaxAge = -1
	return opts
}

// NewSessionStore はクッキーのみを使うセッションストアを作成します。
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg == nil || cfg.SessionName == "" || len(cfg.SessionSecret) < minSecretLength {
		return nil, ErrInsecureSession
	}
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(CookieOptions(cfg))
	return store, nil
}

// SessionMiddleware はセッションを開始するミドルウェアを返します。
func SessionMiddleware(cfg *config.Config) (gin.HandlerFunc, error) {
	store, err := NewSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	return sessions.Sessions(cfg.SessionName, store), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func readInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func readString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func readBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
