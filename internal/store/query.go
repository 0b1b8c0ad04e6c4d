package store

import (
	"github.com/oarkflow/squealx/orm"
)

// Table と Column はSQL識別子です。クエリはこれらの型付き定数からのみ組み立てます。
type (
	Table  string
	Column string
)

const (
	TableAdmin           Table = "tbl_admin"
	TableGroup           Table = "tbl_group_id"
	TableAllotmentStatus Table = "tbl_allotment_status"
)

const (
	ColAdminID         Column = "admin_id"
	ColGroupID         Column = "group_id"
	ColPassword        Column = "password"
	ColLastLogin       Column = "last_login"
	ColGroupSize       Column = "group_size"
	ColAllotmentStatus Column = "allotment_status"
	ColProcessStatus   Column = "process_status"
	ColMessage         Column = "message"
	ColShowMessage     Column = "show_message"
	ColLoginStatus     Column = "login_status"
	ColLoginMessage    Column = "login_message"
	ColRegistrations   Column = "registrations"
)

// flavor は SQLite 方言（"?" プレースホルダー、ダブルクォート識別子）です。
const flavor = orm.SQLite

func (t Table) quoted() string  { return flavor.Quote(string(t)) }
func (c Column) quoted() string { return flavor.Quote(string(c)) }

func quoteColumns(cols []Column) []string {
	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, c.quoted())
	}
	return quoted
}

// selectFrom は単一テーブルに対する SELECT を作成します。列を省略すると * になります。
func selectFrom(table Table, cols ...Column) *orm.Query {
	selected := []string{"*"}
	if len(cols) > 0 {
		selected = quoteColumns(cols)
	}
	return flavor.NewQuery().Select(selected...).From(table.quoted())
}

// update は単一テーブルに対する UPDATE を作成します。
func update(table Table) *orm.UpdateBuilder {
	return flavor.NewUpdateBuilder().Update(table.quoted())
}

// insertInto は単一行の INSERT を作成します。値は Values で渡します。
func insertInto(table Table, cols ...Column) *orm.InsertBuilder {
	return flavor.NewInsertBuilder().InsertInto(table.quoted()).Cols(quoteColumns(cols)...)
}

// equal は "col = ?" 条件を作り、値をビルダーの引数に束縛します。
func equal(cond *orm.Cond, col Column, value interface{}) string {
	return cond.Equal(col.quoted(), value)
}

// assign は UPDATE の "col = ?" 代入を作ります。
func assign(ub *orm.UpdateBuilder, col Column, value interface{}) string {
	return ub.Assign(col.quoted(), value)
}
