// Package auth はユーザー登録・認証・セッション管理のドメインロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/repository"
)

// TokenIssuer はトークンの発行・検証インターフェース。
type TokenIssuer interface {
	IssueAccessToken(userID int64, role model.Role) (string, error)
	IssueRefreshToken(ctx context.Context, userID int64) (string, error)
	VerifyRefreshToken(tokenString string) (int64, error)
}

// TokenPair はログイン・登録・更新で払い出すトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Config は認証サービスの設定。
type Config struct {
	// BcryptCost はパスワードハッシュのコストパラメータ。
	BcryptCost int
	// AdminRegistrationKey は管理者登録の事前共有キー。
	AdminRegistrationKey string
	// HospitalRegistrationKey は病院登録の事前共有キー。
	HospitalRegistrationKey string
}

// Service は認証のサービス層。
type Service struct {
	config Config
	users  repository.UserRepository
	ledger repository.RefreshTokenRepository
	tokens TokenIssuer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	config Config,
	users repository.UserRepository,
	ledger repository.RefreshTokenRepository,
	tokens TokenIssuer,
) *Service {
	return &Service{
		config: config,
		users:  users,
		ledger: ledger,
		tokens: tokens,
	}
}

// RegisterInput は一般ユーザー登録の入力。
// 任意項目は空文字のとき未指定として扱う。
type RegisterInput struct {
	FullName      string
	Email         string
	Password      string
	ContactNumber string
	Profession    string
	Category      string
}

// Register は一般ユーザーを登録し、トークンの組を払い出す。
// メールは小文字へ正規化し、重複はDBの一意制約を正として検出する。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, *TokenPair, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := normalizeEmail(input.Email)

	var missing []string
	if fullName == "" {
		missing = append(missing, "fullName")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, nil, model.NewValidationError(missing...)
	}

	// 事前確認はレイテンシ最適化。最終的な正は一意制約。
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("既存ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		FullName:      fullName,
		Email:         email,
		PasswordHash:  hash,
		ContactNumber: optional(input.ContactNumber),
		Profession:    optional(input.Profession),
		Category:      optional(input.Category),
		Role:          model.RoleUser,
		IsVerified:    false,
	}
	if err := s.createWithRegistrationCode(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("ユーザーを登録しました",
		slog.Int64("user_id", user.ID),
		slog.String("registration_code", user.RegistrationCode),
	)

	return user, pair, nil
}

// Login はメールとパスワードで認証し、トークンの組を払い出す。
// 未知のメールとパスワード不一致は同じエラーで返し、ユーザー存在を漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	email = normalizeEmail(email)

	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, nil, model.NewValidationError(missing...)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("ログインしました", slog.Int64("user_id", user.ID))

	return user, pair, nil
}

// AdminRegisterInput は管理者・病院ユーザー登録の入力。
type AdminRegisterInput struct {
	UserType        string
	RegistrationKey string
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AdminRegister は事前共有キーの提示を条件に管理者または病院ユーザーを登録する。
// UserTypeは"Admin"と"Hospital"のみ有効（大文字小文字を区別する）。
func (s *Service) AdminRegister(ctx context.Context, input AdminRegisterInput) (*model.User, *TokenPair, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := normalizeEmail(input.Email)

	var missing []string
	if input.UserType == "" {
		missing = append(missing, "userType")
	}
	if input.RegistrationKey == "" {
		missing = append(missing, "registrationKey")
	}
	if fullName == "" {
		missing = append(missing, "fullName")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, nil, model.NewValidationError(missing...)
	}
	if input.Password != input.ConfirmPassword {
		return nil, nil, model.NewValidationError("confirmPassword")
	}

	var role model.Role
	var key string
	switch input.UserType {
	case "Admin":
		role = model.RoleAdmin
		key = s.config.AdminRegistrationKey
	case "Hospital":
		role = model.RoleHospital
		key = s.config.HospitalRegistrationKey
	default:
		return nil, nil, model.NewValidationError("userType")
	}
	if input.RegistrationKey != key {
		slog.Warn("登録キーの検証に失敗しました", slog.String("user_type", input.UserType))
		return nil, nil, model.NewInvalidRegistrationKeyError()
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("既存ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}
	if err := s.createWithRegistrationCode(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("特権ユーザーを登録しました",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role.Name()),
	)

	return user, pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンの組を払い出す。
// 検証は署名と期限のみで、旧トークンの台帳行はログアウトまで残る。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, model.NewValidationError("refreshToken")
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidTokenError()
	}

	return s.issuePair(ctx, user)
}

// Logout はリフレッシュトークンの台帳行を削除しセッションを失効させる。
// 該当行がなくても成功として扱う（冪等）。
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.ledger.DeleteByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("リフレッシュトークンの削除に失敗しました: %w", err)
	}
	return nil
}

// CurrentUser は身元情報のユーザーIDで現在のユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// createWithRegistrationCode は登録コードを採番してユーザーを挿入する。
// コード衝突時は上限回数まで再生成する。
func (s *Service) createWithRegistrationCode(ctx context.Context, user *model.User) error {
	for attempt := 0; attempt < regCodeAttempts; attempt++ {
		code, err := newRegistrationCode()
		if err != nil {
			return err
		}
		user.RegistrationCode = code

		err = s.users.Create(ctx, user)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.NewEmailTakenError()
		}
		if errors.Is(err, repository.ErrDuplicateRegistrationCode) {
			continue
		}
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return fmt.Errorf("登録コードの採番が%d回連続で衝突しました", regCodeAttempts)
}

func (s *Service) issuePair(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの発行に失敗しました: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
