package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockTokenLedger struct {
	deleteByTokenFn func(ctx context.Context, token string) error
}

func (m *mockTokenLedger) Create(_ context.Context, _ *model.RefreshToken) error {
	return nil
}

func (m *mockTokenLedger) DeleteByToken(ctx context.Context, token string) error {
	if m.deleteByTokenFn != nil {
		return m.deleteByTokenFn(ctx, token)
	}
	return nil
}

type mockTokenIssuer struct {
	issueAccessFn   func(userID int64, role model.Role) (string, error)
	issueRefreshFn  func(ctx context.Context, userID int64) (string, error)
	verifyRefreshFn func(tokenString string) (int64, error)
}

func (m *mockTokenIssuer) IssueAccessToken(userID int64, role model.Role) (string, error) {
	if m.issueAccessFn != nil {
		return m.issueAccessFn(userID, role)
	}
	return "access-token", nil
}

func (m *mockTokenIssuer) IssueRefreshToken(ctx context.Context, userID int64) (string, error) {
	if m.issueRefreshFn != nil {
		return m.issueRefreshFn(ctx, userID)
	}
	return "refresh-token", nil
}

func (m *mockTokenIssuer) VerifyRefreshToken(tokenString string) (int64, error) {
	if m.verifyRefreshFn != nil {
		return m.verifyRefreshFn(tokenString)
	}
	return 0, errors.New("unexpected call")
}

func testService(users *mockUserRepo, ledger *mockTokenLedger, tokens *mockTokenIssuer) *Service {
	if users == nil {
		users = &mockUserRepo{}
	}
	if ledger == nil {
		ledger = &mockTokenLedger{}
	}
	if tokens == nil {
		tokens = &mockTokenIssuer{}
	}
	cfg := Config{
		BcryptCost:              bcrypt.MinCost,
		AdminRegistrationKey:    "admin-key",
		HospitalRegistrationKey: "hospital-key",
	}
	return NewService(cfg, users, ledger, tokens)
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %s, want %s", apiErr.Code, code)
	}
}

// --- Register ---

func TestService_Register_Success(t *testing.T) {
	var created *model.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 10
			created = user
			return nil
		},
	}
	svc := testService(users, nil, nil)

	user, pair, err := svc.Register(context.Background(), RegisterInput{
		FullName:      "Anita Rao",
		Email:         "Anita.Rao@Example.COM",
		Password:      "secret123",
		ContactNumber: "9876543210",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.Email != "anita.rao@example.com" {
		t.Errorf("email = %s, want lowercased", user.Email)
	}
	if user.Role != model.RoleUser {
		t.Errorf("role = %v, want RoleUser", user.Role)
	}
	if user.IsVerified {
		t.Error("new user should not be verified")
	}
	if !strings.HasPrefix(user.RegistrationCode, "TRUST-") || len(user.RegistrationCode) != len("TRUST-")+regCodeLength {
		t.Errorf("registration code = %q, want TRUST- prefix with %d chars", user.RegistrationCode, regCodeLength)
	}
	if user.ContactNumber == nil || *user.ContactNumber != "9876543210" {
		t.Error("contact number should be stored")
	}
	if user.Profession != nil {
		t.Error("unset optional field should stay nil")
	}
	if created == nil || created.PasswordHash == "secret123" {
		t.Error("password must be stored as a bcrypt hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("registration should issue a token pair")
	}
}

func TestService_Register_MissingFields(t *testing.T) {
	svc := testService(nil, nil, nil)

	_, _, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com"})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

func TestService_Register_EmailTaken_PreCheck(t *testing.T) {
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 5, Email: email}, nil
		},
	}
	svc := testService(users, nil, nil)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@example.com", Password: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeEmailTaken)
}

// 事前確認をすり抜けても一意制約違反がConflictとして返ることを検証
func TestService_Register_EmailTaken_Constraint(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := testService(users, nil, nil)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@example.com", Password: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeEmailTaken)
}

// 登録コード衝突時に別コードで再試行することを検証
func TestService_Register_RegistrationCodeCollision_Retries(t *testing.T) {
	var codes []string
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			codes = append(codes, user.RegistrationCode)
			if len(codes) == 1 {
				return repository.ErrDuplicateRegistrationCode
			}
			user.ID = 2
			return nil
		},
	}
	svc := testService(users, nil, nil)

	user, _, err := svc.Register(context.Background(), RegisterInput{
		FullName: "A", Email: "a@example.com", Password: "pw",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("create attempts = %d, want 2", len(codes))
	}
	if codes[0] == codes[1] {
		t.Error("retry should generate a fresh registration code")
	}
	if user.RegistrationCode != codes[1] {
		t.Error("user should carry the code that was accepted")
	}
}

// --- Login ---

func TestService_Login_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "a@example.com" {
				t.Errorf("lookup email = %s, want normalized form", email)
			}
			return &model.User{ID: 3, Email: email, PasswordHash: string(hash), Role: model.RoleUser}, nil
		},
	}
	svc := testService(users, nil, nil)

	user, pair, err := svc.Login(context.Background(), " A@Example.com ", "secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("user ID = %d, want 3", user.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("login should issue a token pair")
	}
}

// 未知のメールとパスワード不一致が同じエラーになることを検証
func TestService_Login_GenericFailure(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		users *mockUserRepo
	}{
		{
			name:  "未知のメール",
			users: &mockUserRepo{},
		},
		{
			name: "パスワード不一致",
			users: &mockUserRepo{
				findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					return &model.User{ID: 1, PasswordHash: string(hash)}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testService(tt.users, nil, nil)
			_, _, err := svc.Login(context.Background(), "a@example.com", "wrong")
			assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
		})
	}
}

// --- AdminRegister ---

func TestService_AdminRegister_Admin(t *testing.T) {
	var created *model.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 20
			created = user
			return nil
		},
	}
	svc := testService(users, nil, nil)

	user, pair, err := svc.AdminRegister(context.Background(), AdminRegisterInput{
		UserType:        "Admin",
		RegistrationKey: "admin-key",
		FullName:        "Root Admin",
		Email:           "admin@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	if err != nil {
		t.Fatalf("AdminRegister returned error: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("role = %v, want RoleAdmin", user.Role)
	}
	if !created.IsVerified {
		t.Error("privileged registration should insert a verified user")
	}
	if pair.AccessToken == "" {
		t.Error("privileged registration should issue tokens")
	}
}

func TestService_AdminRegister_Hospital(t *testing.T) {
	svc := testService(nil, nil, nil)

	user, _, err := svc.AdminRegister(context.Background(), AdminRegisterInput{
		UserType:        "Hospital",
		RegistrationKey: "hospital-key",
		FullName:        "City Hospital",
		Email:           "hospital@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	if err != nil {
		t.Fatalf("AdminRegister returned error: %v", err)
	}
	if user.Role != model.RoleHospital {
		t.Errorf("role = %v, want RoleHospital", user.Role)
	}
}

func TestService_AdminRegister_WrongKey(t *testing.T) {
	svc := testService(nil, nil, nil)

	_, _, err := svc.AdminRegister(context.Background(), AdminRegisterInput{
		UserType:        "Admin",
		RegistrationKey: "hospital-key",
		FullName:        "X",
		Email:           "x@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRegKey)
}

// UserTypeは大文字小文字を区別する
func TestService_AdminRegister_UserTypeCaseSensitive(t *testing.T) {
	svc := testService(nil, nil, nil)

	_, _, err := svc.AdminRegister(context.Background(), AdminRegisterInput{
		UserType:        "admin",
		RegistrationKey: "admin-key",
		FullName:        "X",
		Email:           "x@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

func TestService_AdminRegister_PasswordMismatch(t *testing.T) {
	svc := testService(nil, nil, nil)

	_, _, err := svc.AdminRegister(context.Background(), AdminRegisterInput{
		UserType:        "Admin",
		RegistrationKey: "admin-key",
		FullName:        "X",
		Email:           "x@example.com",
		Password:        "pw",
		ConfirmPassword: "other",
	})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

// --- Refresh ---

func TestService_Refresh_Success(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleHospital}, nil
		},
	}
	var issuedRole model.Role
	tokens := &mockTokenIssuer{
		verifyRefreshFn: func(tokenString string) (int64, error) {
			return 7, nil
		},
		issueAccessFn: func(userID int64, role model.Role) (string, error) {
			issuedRole = role
			return "new-access", nil
		},
		issueRefreshFn: func(ctx context.Context, userID int64) (string, error) {
			return "new-refresh", nil
		},
	}
	svc := testService(users, nil, tokens)

	pair, err := svc.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if pair.AccessToken != "new-access" || pair.RefreshToken != "new-refresh" {
		t.Errorf("pair = %+v, want freshly issued tokens", pair)
	}
	if issuedRole != model.RoleHospital {
		t.Errorf("new access token role = %v, want the user's current role", issuedRole)
	}
}

func TestService_Refresh_InvalidToken(t *testing.T) {
	tokens := &mockTokenIssuer{
		verifyRefreshFn: func(tokenString string) (int64, error) {
			return 0, errors.New("bad signature")
		},
	}
	svc := testService(nil, nil, tokens)

	_, err := svc.Refresh(context.Background(), "tampered")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidToken)
}

// トークンが有効でもユーザー行が消えていれば拒否する
func TestService_Refresh_UserGone(t *testing.T) {
	tokens := &mockTokenIssuer{
		verifyRefreshFn: func(tokenString string) (int64, error) {
			return 404, nil
		},
	}
	svc := testService(nil, nil, tokens)

	_, err := svc.Refresh(context.Background(), "valid-but-orphaned")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidToken)
}

// --- Logout ---

func TestService_Logout_DeletesExactToken(t *testing.T) {
	var deleted string
	ledger := &mockTokenLedger{
		deleteByTokenFn: func(ctx context.Context, token string) error {
			deleted = token
			return nil
		},
	}
	svc := testService(nil, ledger, nil)

	if err := svc.Logout(context.Background(), "the-refresh-token"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deleted != "the-refresh-token" {
		t.Errorf("deleted token = %q, want exact match", deleted)
	}
}

func TestService_Logout_EmptyToken_NoOp(t *testing.T) {
	ledger := &mockTokenLedger{
		deleteByTokenFn: func(ctx context.Context, token string) error {
			t.Error("ledger should not be touched for an empty token")
			return nil
		},
	}
	svc := testService(nil, ledger, nil)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
}

// --- CurrentUser ---

func TestService_CurrentUser(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == 5 {
				return &model.User{ID: 5, FullName: "Anita"}, nil
			}
			return nil, nil
		},
	}
	svc := testService(users, nil, nil)

	user, err := svc.CurrentUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user.FullName != "Anita" {
		t.Errorf("FullName = %s, want Anita", user.FullName)
	}

	_, err = svc.CurrentUser(context.Background(), 99)
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}
