// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す閉じた列挙型。
// DBおよびトークンにはroles表のシードIDと一致する整数値で格納する。
type Role int

const (
	// RoleAdmin は全ロールチェックをバイパスする管理者。
	RoleAdmin Role = 1
	// RoleHospital は病院オペレーター。
	RoleHospital Role = 2
	// RoleUser は一般ユーザー（登録時のデフォルト）。
	RoleUser Role = 3
)

// roleNames はロール名↔IDの唯一の正準マッピング。
var roleNames = map[Role]string{
	RoleAdmin:    "admin",
	RoleHospital: "hospital",
	RoleUser:     "user",
}

// Name はロールの正準名を返す。未知の値は空文字を返す。
func (r Role) Name() string {
	return roleNames[r]
}

// Valid はロールが列挙のいずれかであることを報告する。
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// RoleByName は正準名からロールを検索する。
func RoleByName(name string) (Role, bool) {
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return 0, false
}

// User は登録ユーザーを表す。
// Emailは挿入前に小文字へ正規化され、一意制約のキーとなる。
// PasswordHashは外部に公開しない。
type User struct {
	ID               int64
	FullName         string
	Email            string
	PasswordHash     string
	ContactNumber    *string
	Profession       *string
	Category         *string
	RegistrationCode string
	Role             Role
	IsVerified       bool
	CreatedAt        time.Time
}

// RefreshToken はリフレッシュトークン台帳の1行を表す。
// 発行のたびに挿入され、明示的なログアウトでのみ削除される。
// 検証は署名と埋め込み期限のみで行い、台帳は削除時の完全一致検索にしか使わない。
type RefreshToken struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Identity は検証済みアクセストークンから得たリクエストスコープの身元情報。
// 1リクエストの間だけ存在し、永続化しない。
type Identity struct {
	UserID int64
	Role   Role
}
