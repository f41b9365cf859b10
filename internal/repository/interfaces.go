// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// 一意制約違反を表すセンチネルエラー。
// 重複チェックはアプリ側の事前確認ではなくストアの制約を正とする。
var (
	// ErrDuplicateEmail はusers.emailの一意制約違反。
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateRegistrationCode はusers.registration_codeの一意制約違反。
	ErrDuplicateRegistrationCode = errors.New("duplicate registration code")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを挿入し、採番されたIDと作成時刻をuserに書き戻す。
	// 一意制約違反はErrDuplicateEmail / ErrDuplicateRegistrationCodeとして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は正規化済みメールでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// RefreshTokenRepository はリフレッシュトークン台帳の永続化インターフェース。
// 台帳はトークン文字列の完全一致削除にのみ参照され、検証には使わない。
type RefreshTokenRepository interface {
	// Create は台帳に1行を挿入する。
	Create(ctx context.Context, token *model.RefreshToken) error

	// DeleteByToken はトークン文字列の完全一致で行を削除する。
	// 該当行がなくてもエラーにしない（冪等）。
	DeleteByToken(ctx context.Context, token string) error
}

// BeneficiaryRepository は受益者フォームの永続化インターフェース。
type BeneficiaryRepository interface {
	// Create は受益者レコードを挿入し、採番されたIDを書き戻す。
	Create(ctx context.Context, b *model.Beneficiary) error

	// List は受益者レコードを新しい順に返す。
	List(ctx context.Context) ([]*model.Beneficiary, error)
}

// VolunteerRepository はボランティア登録の永続化インターフェース。
type VolunteerRepository interface {
	// Create はボランティアレコードを挿入し、採番されたIDを書き戻す。
	Create(ctx context.Context, v *model.Volunteer) error

	// SetVolunteerID はDB採番IDから導出した人間可読IDを保存する。
	SetVolunteerID(ctx context.Context, id int64, volunteerID string) error

	// FindByVolunteerID は人間可読IDでボランティアを検索する。見つからない場合はnilを返す。
	FindByVolunteerID(ctx context.Context, volunteerID string) (*model.Volunteer, error)

	// List はボランティアレコードを新しい順に返す。
	List(ctx context.Context) ([]*model.Volunteer, error)
}
