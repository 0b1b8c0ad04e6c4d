// Package store は資格情報と割り当て状態の永続化を提供します。
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/drivers/sqlite"
	"github.com/oarkflow/squealx/orm"

	"github.com/yourusername/hostel-allotment/internal/allotment"
)

// Admin は管理者の資格情報です。
type Admin struct {
	AdminID  string `db:"admin_id"`
	Password string `db:"password"`
}

// Group は申請グループの資格情報と割り当て状態です。
type Group struct {
	GroupID         string `db:"group_id"`
	Password        string `db:"password"`
	LastLogin       int64  `db:"last_login"`
	GroupSize       int    `db:"group_size"`
	AllotmentStatus string `db:"allotment_status"`
}

// Store はSQLデータベース上の資格情報・割り当て状態を扱います。
type Store struct {
	db *squealx.DB
}

// New は既存の接続から Store を作成します。
func New(db *squealx.DB) *Store {
	return &Store{db: db}
}

// Open は SQLite データベースを開き、スキーマを適用します。
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close は接続を閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate はテーブルを作成し、割り当てプロセスの単一行を用意します。
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// AdminByCredentials は ID とパスワードハッシュが一致する管理者を返します。見つからなければ nil です。
func (s *Store) AdminByCredentials(adminID, passwordHash string) (*Admin, error) {
	query := selectFrom(TableAdmin, ColAdminID, ColPassword)
	query.Where(
		equal(&query.Cond, ColAdminID, adminID),
		equal(&query.Cond, ColPassword, passwordHash),
	).Limit(1)
	return getOne[Admin](s.db, query)
}

// AdminByID は管理者を ID で取得します。見つからなければ nil です。
func (s *Store) AdminByID(adminID string) (*Admin, error) {
	query := selectFrom(TableAdmin, ColAdminID, ColPassword)
	query.Where(equal(&query.Cond, ColAdminID, adminID)).Limit(1)
	return getOne[Admin](s.db, query)
}

// GroupByCredentials は ID とパスワードハッシュが一致するグループを返します。見つからなければ nil です。
func (s *Store) GroupByCredentials(groupID, passwordHash string) (*Group, error) {
	query := selectFrom(TableGroup, groupColumns...)
	query.Where(
		equal(&query.Cond, ColGroupID, groupID),
		equal(&query.Cond, ColPassword, passwordHash),
	).Limit(1)
	return getOne[Group](s.db, query)
}

// GroupByID はグループを ID で取得します。見つからなければ nil です。
func (s *Store) GroupByID(groupID string) (*Group, error) {
	query := selectFrom(TableGroup, groupColumns...)
	query.Where(equal(&query.Cond, ColGroupID, groupID)).Limit(1)
	return getOne[Group](s.db, query)
}

// UpdateLastLogin はグループの last_login を更新します。
func (s *Store) UpdateLastLogin(groupID string, at time.Time) error {
	query := update(TableGroup)
	query.Set(assign(query, ColLastLogin, at.Unix())).
		Where(equal(&query.Cond, ColGroupID, groupID))
	if err := s.exec(query); err != nil {
		return fmt.Errorf("failed to update last_login: %w", err)
	}
	return nil
}

// GroupAllotmentStatus はグループの割り当てステータスを返します。
func (s *Store) GroupAllotmentStatus(groupID string) (allotment.Status, error) {
	var status string
	query := selectFrom(TableGroup, ColAllotmentStatus)
	query.Where(equal(&query.Cond, ColGroupID, groupID))
	sqlStr, args := query.Build()
	if err := s.db.Get(&status, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return allotment.StatusNone, nil
		}
		return allotment.StatusNone, fmt.Errorf("failed to read allotment status: %w", err)
	}
	return allotment.Status(status), nil
}

// AllotmentProcess は割り当てプロセスの状態行を返します。
func (s *Store) AllotmentProcess() (*allotment.ProcessStatus, error) {
	query := selectFrom(TableAllotmentStatus, processColumns...).Limit(1)
	status, err := getOne[allotment.ProcessStatus](s.db, query)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &allotment.ProcessStatus{}, nil
	}
	return status, nil
}

// LoginStatus は login_status（ENABLED / DISABLED）を返します。
func (s *Store) LoginStatus() (string, error) {
	return s.processField(ColLoginStatus)
}

// LoginMessage はログイン画面向けメッセージを返します。
func (s *Store) LoginMessage() (string, error) {
	return s.processField(ColLoginMessage)
}

// UpdateAllotmentProcess は割り当てプロセスの状態行を一括更新します。
func (s *Store) UpdateAllotmentProcess(status allotment.ProcessStatus) error {
	query := update(TableAllotmentStatus)
	query.Set(
		assign(query, ColProcessStatus, status.ProcessStatus),
		assign(query, ColMessage, status.Message),
		assign(query, ColShowMessage, status.ShowMessage),
		assign(query, ColLoginStatus, status.LoginStatus),
		assign(query, ColLoginMessage, status.LoginMessage),
		assign(query, ColRegistrations, status.Registrations),
	)
	if err := s.exec(query); err != nil {
		return fmt.Errorf("failed to update allotment process: %w", err)
	}
	return nil
}

// CreateAdmin は管理者を登録します。
func (s *Store) CreateAdmin(admin Admin) error {
	query := insertInto(TableAdmin, ColAdminID, ColPassword).
		Values(admin.AdminID, admin.Password)
	if err := s.exec(query); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// CreateGroup はグループを登録します。
func (s *Store) CreateGroup(group Group) error {
	query := insertInto(TableGroup, groupColumns...).Values(
		group.GroupID,
		group.Password,
		group.LastLogin,
		group.GroupSize,
		group.AllotmentStatus,
	)
	if err := s.exec(query); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// SetGroupAllotmentStatus はグループのワークフロー段階を変更します。
func (s *Store) SetGroupAllotmentStatus(groupID string, status allotment.Status) error {
	query := update(TableGroup)
	query.Set(assign(query, ColAllotmentStatus, string(status))).
		Where(equal(&query.Cond, ColGroupID, groupID))
	if err := s.exec(query); err != nil {
		return fmt.Errorf("failed to update allotment status: %w", err)
	}
	return nil
}

var groupColumns = []Column{
	ColGroupID,
	ColPassword,
	ColLastLogin,
	ColGroupSize,
	ColAllotmentStatus,
}

var processColumns = []Column{
	ColProcessStatus,
	ColMessage,
	ColShowMessage,
	ColLoginStatus,
	ColLoginMessage,
	ColRegistrations,
}

func (s *Store) exec(query orm.Builder) error {
	sqlStr, args := query.Build()
	_, err := s.db.Exec(sqlStr, args...)
	return err
}

func (s *Store) processField(col Column) (string, error) {
	var value string
	sqlStr, args := selectFrom(TableAllotmentStatus, col).Limit(1).Build()
	if err := s.db.Get(&value, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", col, err)
	}
	return value, nil
}

func getOne[T any](db *squealx.DB, query orm.Builder) (*T, error) {
	var dest T
	sqlStr, args := query.Build()
	if err := db.Get(&dest, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &dest, nil
}
