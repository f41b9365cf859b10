package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// PostgresRefreshTokenRepo はPostgreSQLを使用したリフレッシュトークン台帳。
type PostgresRefreshTokenRepo struct {
	db *sql.DB
}

// NewPostgresRefreshTokenRepo はPostgresRefreshTokenRepoを生成する。
func NewPostgresRefreshTokenRepo(db *sql.DB) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

// Create は台帳に1行を挿入する。
func (r *PostgresRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		token.ID, token.UserID, token.Token, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

// DeleteByToken はトークン文字列の完全一致で行を削除する。
// 該当行が存在しなくても成功として扱う（冪等なログアウトのため）。
func (r *PostgresRefreshTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RefreshTokenRepository = (*PostgresRefreshTokenRepo)(nil)
