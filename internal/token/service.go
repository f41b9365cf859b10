// Package token はアクセス／リフレッシュトークンの発行と検証を提供する。
//
// 2種類のトークンは独立したシークレットと有効期間を持つ。検証は署名と
// 埋め込み期限のみで完結し、ストレージを参照しない。リフレッシュトークンだけは
// 発行の副作用として台帳へ記録され、ログアウト時の失効に使われる。
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/repository"
)

var (
	// ErrTokenExpired は期限切れトークン。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid は形式不正または署名不一致のトークン。
	ErrTokenInvalid = errors.New("invalid token")
)

// accessClaims はアクセストークンのクレーム。身元とロールを運ぶ。
type accessClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
	RoleID int   `json:"roleId"`
}

// refreshClaims はリフレッシュトークンのクレーム。身元のみを運ぶ。
type refreshClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

// Config はトークンサービスの設定。シークレットは起動時に解決して明示的に渡す。
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Service はHS256署名のJWTを発行・検証する。
type Service struct {
	config Config
	ledger repository.RefreshTokenRepository
}

// NewService はServiceを生成する。
func NewService(config Config, ledger repository.RefreshTokenRepository) *Service {
	return &Service{
		config: config,
		ledger: ledger,
	}
}

// IssueAccessToken はユーザーIDとロールを埋め込んだ短命トークンを発行する。
// 副作用はなく、保持するシークレットだけで任意の検証者が検証できる。
func (s *Service) IssueAccessToken(userID int64, role model.Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTTL)),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		RoleID: int(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken は長命トークンを発行し、台帳へ記録する。
// 署名と台帳挿入は1つの論理ステップであり、挿入に失敗した場合
// トークンは返さず操作全体を失敗させる。
func (s *Service) IssueRefreshToken(ctx context.Context, userID int64) (string, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.RefreshTTL)

	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// jtiにより同一秒内のローテーションでも文字列が重複しない
			ID: uuid.NewString(),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	entry := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to record refresh token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken はアクセストークンを検証し、埋め込まれた身元を返す。
func (s *Service) VerifyAccessToken(tokenString string) (*model.Identity, error) {
	claims := &accessClaims{}
	if err := s.verify(tokenString, claims, s.config.AccessSecret); err != nil {
		return nil, err
	}
	return &model.Identity{
		UserID: claims.UserID,
		Role:   model.Role(claims.RoleID),
	}, nil
}

// VerifyRefreshToken はリフレッシュトークンを検証し、ユーザーIDを返す。
// 台帳は参照しない。ログアウトで行が削除されていても、署名と期限が
// 有効な限り検証は成功する（原実装の挙動を踏襲）。
func (s *Service) VerifyRefreshToken(tokenString string) (int64, error) {
	claims := &refreshClaims{}
	if err := s.verify(tokenString, claims, s.config.RefreshSecret); err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// verify は共通の検証処理。失敗理由をErrTokenExpired / ErrTokenInvalidへ畳み込む。
func (s *Service) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
