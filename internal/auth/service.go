package auth

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-contrib/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/hostel-allotment/internal/allotment"
	"github.com/yourusername/hostel-allotment/internal/config"
	"github.com/yourusername/hostel-allotment/internal/store"
)

// セッションに残すエラーメッセージ
const (
	MsgInvalidCredentials = "Invalid Username/Password."
	MsgSessionExpired     = "Your session expired. Login again."
)

// lastLoginLayout は "F j, Y, g:i:s a" 形式です。
const lastLoginLayout = "January 2, 2006, 3:04:05 pm"

// Repository は認証に必要な永続化操作です。store.Store が実装します。
type Repository interface {
	AdminByCredentials(adminID, passwordHash string) (*store.Admin, error)
	AdminByID(adminID string) (*store.Admin, error)
	GroupByCredentials(groupID, passwordHash string) (*store.Group, error)
	GroupByID(groupID string) (*store.Group, error)
	UpdateLastLogin(groupID string, at time.Time) error
	GroupAllotmentStatus(groupID string) (allotment.Status, error)
	SetGroupAllotmentStatus(groupID string, status allotment.Status) error
	AllotmentProcess() (*allotment.ProcessStatus, error)
	UpdateAllotmentProcess(status allotment.ProcessStatus) error
	LoginStatus() (string, error)
	LoginMessage() (string, error)
}

// Options は Service の動作設定です。
type Options struct {
	PasswordScheme string
	LoginCooldown  time.Duration
	SessionTimeout time.Duration
	LogoutBackdate time.Duration
	CaptchaAfter   int
	Cookie         sessions.Options
}

// OptionsFromConfig は設定から Options を組み立てます。
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PasswordScheme: cfg.PasswordScheme,
		LoginCooldown:  cfg.LoginCooldown,
		SessionTimeout: cfg.SessionTimeout,
		LogoutBackdate: cfg.LogoutBackdate,
		CaptchaAfter:   cfg.CaptchaAfter,
		Cookie:         CookieOptions(cfg),
	}
}

// Service はログイン・セッション検証・ログアウトを行います。
// 想定内の失敗はセッションのフラグと false で返し、error はデータベース障害のみです。
type Service struct {
	repo Repository
	opts Options
	now  func() time.Time
}

// NewService は Service を作成します。
func NewService(repo Repository, opts Options) *Service {
	if opts.CaptchaAfter <= 0 {
		opts.CaptchaAfter = 3
	}
	return &Service{
		repo: repo,
		opts: opts,
		now:  time.Now,
	}
}

// HashPassword はパスワードの SHA-512 を16進文字列で返します。
func HashPassword(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// LoginString は保存済みハッシュとユーザーエージェントを結び付けた値を返します。
func LoginString(passwordHash, userAgent string) string {
	return HashPassword(passwordHash + userAgent)
}

type credential struct {
	passwordHash string
	lastLogin    int64
	groupSize    int
}

// Login は資格情報を検証し、成功時にセッションへ識別情報を書き込みます。
func (s *Service) Login(sess Session, loginID, password, userAgent string, isAdmin bool) (bool, error) {
	cred, err := s.findByPassword(loginID, password, isAdmin)
	if err != nil {
		return false, err
	}
	if cred == nil {
		s.recordFailure(sess)
		return false, nil
	}

	now := s.now()
	if !isAdmin && now.Unix()-cred.lastLogin < int64(s.opts.LoginCooldown/time.Second) {
		sess.Set(KeyLoginLimit, true)
		sess.Set(KeyLoginError, fmt.Sprintf("Last login at: %s. Try in %d mins.",
			time.Unix(cred.lastLogin, 0).Format(lastLoginLayout),
			int(s.opts.LoginCooldown/time.Minute)))
		return false, nil
	}

	sess.Set(KeyLastLogin, now.Unix())
	sess.Set(KeyLoginID, loginID)
	sess.Set(KeyLoginLimit, false)
	sess.Set(KeyLoginString, LoginString(cred.passwordHash, userAgent))
	if isAdmin {
		sess.Set(KeyIsAdmin, true)
		sess.Delete(KeyGroupSize)
		sess.Delete(KeyAllotmentStatus)
	} else {
		sess.Delete(KeyIsAdmin)
		sess.Set(KeyGroupSize, cred.groupSize)
		if err := s.repo.UpdateLastLogin(loginID, now); err != nil {
			return false, err
		}
		if err := s.RefreshGroupStatus(sess); err != nil {
			return false, err
		}
	}
	if err := s.RefreshProcessStatus(sess); err != nil {
		return false, err
	}
	return true, nil
}

// CheckLogin はセッションがログイン済みかを再検証します。
// 保存済みハッシュが変わった場合もパスワード誤りと同じメッセージになります。
func (s *Service) CheckLogin(sess Session, userAgent string, isAdmin bool) (bool, error) {
	sess.Delete(KeyLoginError)

	loginID := readString(sess.Get(KeyLoginID))
	loginString := readString(sess.Get(KeyLoginString))
	if loginID == "" || loginString == "" {
		return false, nil
	}

	lastLogin := readUnix(sess.Get(KeyLastLogin))
	if s.now().Unix()-lastLogin.Unix() > int64(s.opts.SessionTimeout/time.Second) {
		if err := s.Logout(sess, isAdmin); err != nil {
			return false, err
		}
		sess.Set(KeyLoginError, MsgSessionExpired)
		return false, nil
	}

	if readBool(sess.Get(KeyIsAdmin)) != isAdmin {
		sess.Set(KeyLoginError, MsgInvalidCredentials)
		return false, nil
	}

	cred, err := s.findByID(loginID, isAdmin)
	if err != nil {
		return false, err
	}
	if cred == nil {
		sess.Set(KeyLoginError, MsgInvalidCredentials)
		return false, nil
	}
	expected := LoginString(cred.passwordHash, userAgent)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(loginString)) != 1 {
		sess.Set(KeyLoginError, MsgInvalidCredentials)
		return false, nil
	}

	if err := s.RefreshProcessStatus(sess); err != nil {
		return false, err
	}
	if !isAdmin {
		if err := s.RefreshGroupStatus(sess); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Logout はセッションを破棄します。グループの場合は last_login を巻き戻して再ログイン待ちを解除します。
// クッキーの削除は呼び出し側の Save で反映されます。
func (s *Service) Logout(sess Session, isAdmin bool) error {
	if !isAdmin {
		if loginID := readString(sess.Get(KeyLoginID)); loginID != "" {
			if err := s.repo.UpdateLastLogin(loginID, s.now().Add(-s.opts.LogoutBackdate)); err != nil {
				return err
			}
		}
	}
	sess.Clear()
	sess.Options(ExpiredCookieOptions(s.opts.Cookie))
	return nil
}

// RefreshProcessStatus は割り当てプロセスの状態をセッションへ保存します。
func (s *Service) RefreshProcessStatus(sess Session) error {
	status, err := s.repo.AllotmentProcess()
	if err != nil {
		return err
	}
	sess.Set(KeyProcessStatus, status.ProcessStatus)
	return nil
}

// RefreshGroupStatus はログイン中グループの割り当てステータスをセッションへ保存します。
func (s *Service) RefreshGroupStatus(sess Session) error {
	status, err := s.repo.GroupAllotmentStatus(readString(sess.Get(KeyLoginID)))
	if err != nil {
		return err
	}
	sess.Set(KeyAllotmentStatus, string(status))
	return nil
}

// ProcessStatus は割り当てプロセスの状態行を返します。
func (s *Service) ProcessStatus() (*allotment.ProcessStatus, error) {
	return s.repo.AllotmentProcess()
}

// UpdateProcessStatus は割り当てプロセスの状態行を更新します。
func (s *Service) UpdateProcessStatus(status allotment.ProcessStatus) error {
	return s.repo.UpdateAllotmentProcess(status)
}

// SetGroupStatus はグループのワークフロー段階を変更します。
func (s *Service) SetGroupStatus(groupID string, status allotment.Status) error {
	return s.repo.SetGroupAllotmentStatus(groupID, status)
}

// LoginGate はグループのログイン可否と案内メッセージを返します。
func (s *Service) LoginGate() (bool, string, error) {
	status, err := s.repo.LoginStatus()
	if err != nil {
		return false, "", err
	}
	if (&allotment.ProcessStatus{LoginStatus: status}).LoginAllowed() {
		return true, "", nil
	}
	message, err := s.repo.LoginMessage()
	if err != nil {
		return false, "", err
	}
	return false, message, nil
}

// recordFailure は失敗回数を数え、CaptchaAfter 回目の失敗から show_captcha を立てます。
// カウンターは CaptchaAfter-1 で頭打ちになります（最低 1）。
func (s *Service) recordFailure(sess Session) {
	attempts, _ := sess.Get(KeyLoginAttempts).(int)
	if attempts+1 >= s.opts.CaptchaAfter {
		sess.Set(KeyShowCaptcha, true)
	}
	if attempts == 0 || attempts < s.opts.CaptchaAfter-1 {
		sess.Set(KeyLoginAttempts, attempts+1)
	}
	sess.Set(KeyLoginError, MsgInvalidCredentials)
}

func (s *Service) findByPassword(loginID, password string, isAdmin bool) (*credential, error) {
	if s.opts.PasswordScheme == config.PasswordSchemeBcrypt {
		cred, err := s.findByID(loginID, isAdmin)
		if err != nil || cred == nil {
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(cred.passwordHash), []byte(password)) != nil {
			return nil, nil
		}
		return cred, nil
	}

	hash := HashPassword(password)
	if isAdmin {
		admin, err := s.repo.AdminByCredentials(loginID, hash)
		if err != nil || admin == nil {
			return nil, err
		}
		return &credential{passwordHash: admin.Password}, nil
	}
	group, err := s.repo.GroupByCredentials(loginID, hash)
	if err != nil || group == nil {
		return nil, err
	}
	return groupCredential(group), nil
}

func (s *Service) findByID(loginID string, isAdmin bool) (*credential, error) {
	if isAdmin {
		admin, err := s.repo.AdminByID(loginID)
		if err != nil || admin == nil {
			return nil, err
		}
		return &credential{passwordHash: admin.Password}, nil
	}
	group, err := s.repo.GroupByID(loginID)
	if err != nil || group == nil {
		return nil, err
	}
	return groupCredential(group), nil
}

func groupCredential(group *store.Group) *credential {
	return &credential{
		passwordHash: group.Password,
		lastLogin:    group.LastLogin,
		groupSize:    group.GroupSize,
	}
}
