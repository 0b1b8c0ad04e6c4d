package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/hostel-allotment/internal/allotment"
)

// RequireLogin はセッションを再検証するミドルウェアを返します。
func (m *Manager) RequireLogin(isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		ok, err := m.svc.CheckLogin(session, c.Request.UserAgent(), isAdmin)
		if err != nil {
			m.internalError(c, "session check failed", err)
			return
		}

		if !ok {
			message := readString(session.Get(KeyLoginError))
			_ = session.Save()
			code := "UNAUTHORIZED"
			switch message {
			case MsgSessionExpired:
				code = "SESSION_EXPIRED"
			case "":
				message = "Login required."
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    code,
				"message": message,
			})
			return
		}

		_ = session.Save()
		c.Set(ContextUserKey, readString(session.Get(KeyLoginID)))
		c.Next()
	}
}

// PageGate はセッションの割り当てステータスに応じて正規ページへリダイレクトします。
func (m *Manager) PageGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := allotment.Status(readString(sessions.Default(c).Get(KeyAllotmentStatus)))
		current := allotment.CurrentPage(c.Request.URL.Path)
		if page, ok := allotment.RedirectTarget(status, current); ok {
			c.Redirect(http.StatusFound, m.pagePath(page))
			c.Abort()
			return
		}
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(KeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF token is not set",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF token mismatch",
			})
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
