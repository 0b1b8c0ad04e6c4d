// Package auth は認証・認可機能を提供します。
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/hostel-allotment/internal/allotment"
	"github.com/yourusername/hostel-allotment/internal/throttle"
)

const csrfHeader = "X-CSRF-Token"

// ContextUserKey は、ハンドラー間でログイン済みIDを共有するためのキーです。
const ContextUserKey = "auth.user"

// Manager は Service を HTTP ハンドラーとミドルウェアに結び付けます。
type Manager struct {
	svc        *Service
	limiter    throttle.Limiter
	pagePrefix string
	logger     *log.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(svc *Service, limiter throttle.Limiter, pagePrefix string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		svc:        svc,
		limiter:    limiter,
		pagePrefix: pagePrefix,
		logger:     logger,
	}
}

type loginRequest struct {
	LoginID  string `json:"loginId" form:"login_id" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login はグループまたは管理者のログインハンドラーを返します。
func (m *Manager) Login(isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "loginId and password are required",
			})
			return
		}

		if !isAdmin {
			enabled, message, err := m.svc.LoginGate()
			if err != nil {
				m.internalError(c, "failed to read login status", err)
				return
			}
			if !enabled {
				c.JSON(http.StatusForbidden, gin.H{
					"code":    "LOGIN_DISABLED",
					"message": message,
				})
				return
			}
		}

		ctx := c.Request.Context()
		ip := c.ClientIP()
		retryAfter, err := m.limiter.Locked(ctx, ip)
		if err != nil {
			m.internalError(c, "failed to read throttle state", err)
			return
		}
		if retryAfter > 0 {
			c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "TOO_MANY_ATTEMPTS",
				"message": "Too many failed attempts. Try again later.",
			})
			return
		}

		session := sessions.Default(c)
		ok, err := m.svc.Login(session, req.LoginID, req.Password, c.Request.UserAgent(), isAdmin)
		if err != nil {
			m.internalError(c, "login failed", err)
			return
		}

		if !ok {
			message := readString(session.Get(KeyLoginError))
			if err := session.Save(); err != nil {
				m.internalError(c, "failed to save session", err)
				return
			}
			if message != MsgInvalidCredentials {
				m.logger.Printf("login rejected by cooldown id=%s ip=%s", req.LoginID, ip)
				c.JSON(http.StatusTooManyRequests, gin.H{
					"code":    "LOGIN_LIMIT",
					"message": message,
				})
				return
			}

			remaining, err := m.limiter.Fail(ctx, ip)
			if err != nil {
				m.logger.Printf("failed to record login failure ip=%s: %v", ip, err)
			}
			m.logger.Printf("invalid credentials id=%s ip=%s admin=%t", req.LoginID, ip, isAdmin)
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":              "INVALID_CREDENTIALS",
				"message":           message,
				"showCaptcha":       readBool(session.Get(KeyShowCaptcha)),
				"remainingAttempts": remaining,
			})
			return
		}

		if err := m.limiter.Reset(ctx, ip); err != nil {
			m.logger.Printf("failed to reset throttle ip=%s: %v", ip, err)
		}

		token, err := generateToken()
		if err != nil {
			m.internalError(c, "failed to generate csrf token", err)
			return
		}
		session.Set(KeyCSRF, token)
		if err := session.Save(); err != nil {
			m.internalError(c, "failed to save session", err)
			return
		}

		m.logger.Printf("login succeeded id=%s admin=%t", req.LoginID, isAdmin)
		c.Header(csrfHeader, token)
		c.JSON(http.StatusOK, m.sessionPayload(session))
	}
}

// Logout はセッションを破棄するハンドラーを返します。
func (m *Manager) Logout(isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		loginID := readString(session.Get(KeyLoginID))
		if err := m.svc.Logout(session, isAdmin); err != nil {
			m.internalError(c, "logout failed", err)
			return
		}
		if err := session.Save(); err != nil {
			m.internalError(c, "failed to save session", err)
			return
		}
		m.logger.Printf("logout id=%s admin=%t", loginID, isAdmin)
		c.Status(http.StatusNoContent)
	}
}

// SessionInfo はログイン中セッションの概要を返します。
func (m *Manager) SessionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, m.sessionPayload(sessions.Default(c)))
}

func (m *Manager) sessionPayload(session Session) gin.H {
	status := allotment.Status(readString(session.Get(KeyAllotmentStatus)))
	payload := gin.H{
		"loginId":         readString(session.Get(KeyLoginID)),
		"isAdmin":         readBool(session.Get(KeyIsAdmin)),
		"processStatus":   readString(session.Get(KeyProcessStatus)),
		"allotmentStatus": string(status),
		"groupSize":       readInt(session.Get(KeyGroupSize)),
	}
	if page := allotment.PageFor(status); page != "" {
		payload["redirect"] = m.pagePath(page)
	}
	return payload
}

func (m *Manager) pagePath(page string) string {
	return m.pagePrefix + "/" + page
}

func (m *Manager) internalError(c *gin.Context, msg string, err error) {
	m.logger.Printf("%s: %v", msg, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "internal server error",
	})
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
