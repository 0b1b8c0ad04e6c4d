package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/hostel-allotment/internal/allotment"
)

// ProcessStatus は公開向けの割り当てプロセス状態を返します。
func (m *Manager) ProcessStatus(c *gin.Context) {
	status, err := m.svc.ProcessStatus()
	if err != nil {
		m.internalError(c, "failed to read allotment process", err)
		return
	}

	payload := gin.H{
		"processStatus": status.ProcessStatus,
		"showMessage":   status.ShowsMessage(),
		"loginEnabled":  status.LoginAllowed(),
		"registrations": status.Registrations,
	}
	if status.ShowsMessage() {
		payload["message"] = status.Message
	}
	if !status.LoginAllowed() {
		payload["loginMessage"] = status.LoginMessage
	}
	c.JSON(http.StatusOK, payload)
}

// UpdateProcessStatus は管理者が割り当てプロセス状態を一括更新するハンドラーです。
func (m *Manager) UpdateProcessStatus(c *gin.Context) {
	var req allotment.ProcessStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
		return
	}

	if err := m.svc.UpdateProcessStatus(req); err != nil {
		m.internalError(c, "failed to update allotment process", err)
		return
	}

	session := sessions.Default(c)
	if err := m.svc.RefreshProcessStatus(session); err != nil {
		m.internalError(c, "failed to refresh process status", err)
		return
	}
	_ = session.Save()

	m.logger.Printf("allotment process updated by=%s status=%s login=%s",
		c.GetString(ContextUserKey), req.ProcessStatus, req.LoginStatus)
	c.Status(http.StatusNoContent)
}

type groupStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=SELECT ALLOT COMPLETE"`
}

// SetGroupStatus は管理者がグループのワークフロー段階を進めるハンドラーです。
func (m *Manager) SetGroupStatus(c *gin.Context) {
	var req groupStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "status must be one of SELECT, ALLOT, COMPLETE",
		})
		return
	}

	groupID := c.Param("id")
	if err := m.svc.SetGroupStatus(groupID, allotment.Status(req.Status)); err != nil {
		m.internalError(c, "failed to update group status", err)
		return
	}

	m.logger.Printf("group status updated by=%s group=%s status=%s",
		c.GetString(ContextUserKey), groupID, req.Status)
	c.Status(http.StatusNoContent)
}

// Page はページゲートを通過したワークフローページを返します。
// テンプレート描画は行わず、表示対象のページ名のみを返します。
func (m *Manager) Page(c *gin.Context) {
	session := sessions.Default(c)
	c.JSON(http.StatusOK, gin.H{
		"page":            c.Param("page"),
		"loginId":         readString(session.Get(KeyLoginID)),
		"allotmentStatus": readString(session.Get(KeyAllotmentStatus)),
	})
}
