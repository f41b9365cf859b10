package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/varshith1024/mirav-backend/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを挿入し、採番されたIDと作成時刻を書き戻す。
// 同時登録の競合はストアの一意制約が解決し、該当のセンチネルエラーへ変換する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (full_name, email, password_hash, contact_number, profession, category, registration_code, role_id, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		user.FullName, user.Email, user.PasswordHash,
		user.ContactNumber, user.Profession, user.Category,
		user.RegistrationCode, int(user.Role), user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindByEmail は正規化済みメールでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, password_hash, contact_number, profession, category,
		        registration_code, role_id, is_verified, created_at
		 FROM users WHERE email = $1`,
		email,
	))
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, password_hash, contact_number, profession, category,
		        registration_code, role_id, is_verified, created_at
		 FROM users WHERE id = $1`,
		id,
	))
}

// scanOne は1行のユーザーを読み取る。sql.ErrNoRowsは(nil, nil)に写す。
func (r *PostgresUserRepo) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var roleID int

	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.ContactNumber, &user.Profession, &user.Category,
		&user.RegistrationCode, &roleID, &user.IsVerified, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Role = model.Role(roleID)
	return user, nil
}

// duplicateError は一意制約違反を制約名ごとのセンチネルエラーへ変換する。
// 一意制約違反でない場合はnilを返す。
func duplicateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}

	switch pqErr.Constraint {
	case "users_email_key":
		return ErrDuplicateEmail
	case "users_registration_code_key":
		return ErrDuplicateRegistrationCode
	default:
		return fmt.Errorf("unique violation on %s: %w", pqErr.Constraint, err)
	}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
