// Package allotment は部屋割り当てプロセスの状態とページ遷移ルールを扱います。
package allotment

import (
	"path"
	"strings"
)

// Status はグループの割り当てワークフロー段階です。
type Status string

const (
	StatusNone     Status = ""
	StatusSelect   Status = "SELECT"
	StatusAllot    Status = "ALLOT"
	StatusComplete Status = "COMPLETE"
)

// 各ステータスの正規ページ
const (
	PageMap   = "map"
	PageAllot = "allot"
)

// グローバル設定値
const (
	LoginEnabled  = "ENABLED"
	LoginDisabled = "DISABLED"
	MessageShow   = "SHOW"
	MessageHide   = "HIDE"
)

// ProcessStatus は割り当てプロセス全体の状態（単一行）です。
type ProcessStatus struct {
	ProcessStatus string `db:"process_status" json:"processStatus" binding:"required"`
	Message       string `db:"message" json:"message"`
	ShowMessage   string `db:"show_message" json:"showMessage" binding:"required,oneof=SHOW HIDE"`
	LoginStatus   string `db:"login_status" json:"loginStatus" binding:"required,oneof=ENABLED DISABLED"`
	LoginMessage  string `db:"login_message" json:"loginMessage"`
	Registrations string `db:"registrations" json:"registrations"`
}

// ShowsMessage はグローバルメッセージを表示するかどうかを返します。
func (p *ProcessStatus) ShowsMessage() bool {
	return p != nil && p.ShowMessage == MessageShow
}

// LoginAllowed はグループのログインが許可されているかを返します。DISABLED 以外は許可です。
func (p *ProcessStatus) LoginAllowed() bool {
	return p != nil && p.LoginStatus != LoginDisabled
}

// PageFor はステータスに対応するページ名を返します。未知のステータスでは空文字です。
func PageFor(status Status) string {
	switch status {
	case StatusSelect:
		return PageMap
	case StatusAllot, StatusComplete:
		return PageAllot
	default:
		return ""
	}
}

// CurrentPage はリクエストパスからページ名（拡張子なしのベース名）を取り出します。
func CurrentPage(requestPath string) string {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	base := path.Base(requestPath)
	if base == "/" || base == "." {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// RedirectTarget は現在のページがステータスの正規ページと異なる場合に遷移先ページ名を返します。
// ステータス未設定または未知の場合はリダイレクトしません。
func RedirectTarget(status Status, currentPage string) (string, bool) {
	page := PageFor(status)
	if page == "" || page == currentPage {
		return "", false
	}
	return page, true
}
