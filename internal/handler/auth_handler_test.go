package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/varshith1024/mirav-backend/internal/auth"
	"github.com/varshith1024/mirav-backend/internal/middleware"
	"github.com/varshith1024/mirav-backend/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn      func(ctx context.Context, input auth.RegisterInput) (*model.User, *auth.TokenPair, error)
	loginFn         func(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error)
	adminRegisterFn func(ctx context.Context, input auth.AdminRegisterInput) (*model.User, *auth.TokenPair, error)
	refreshFn       func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	logoutFn        func(ctx context.Context, refreshToken string) error
	currentUserFn   func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, *auth.TokenPair, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil, errors.New("unexpected call")
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil, errors.New("unexpected call")
}

func (m *mockAuthService) AdminRegister(ctx context.Context, input auth.AdminRegisterInput) (*model.User, *auth.TokenPair, error) {
	if m.adminRegisterFn != nil {
		return m.adminRegisterFn(ctx, input)
	}
	return nil, nil, errors.New("unexpected call")
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, errors.New("unexpected call")
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, refreshToken)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, errors.New("unexpected call")
}

func sampleUser() *model.User {
	return &model.User{
		ID:               1,
		FullName:         "Anita Rao",
		Email:            "anita@example.com",
		PasswordHash:     "$2a$10$secret",
		RegistrationCode: "TRUST-A1B2C3",
		Role:             model.RoleUser,
	}
}

func samplePair() *auth.TokenPair {
	return &auth.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// --- Register ---

func TestAuthHandler_Register_Created(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, *auth.TokenPair, error) {
			if input.Email != "anita@example.com" {
				t.Errorf("input email = %s", input.Email)
			}
			return sampleUser(), samplePair(), nil
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"fullName": "Anita Rao",
		"email":    "anita@example.com",
		"password": "secret123",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if resp.AccessToken != "access-token" || resp.RefreshToken != "refresh-token" {
		t.Error("response should carry the issued token pair")
	}
	if resp.User["registrationCode"] != "TRUST-A1B2C3" {
		t.Errorf("registrationCode = %v", resp.User["registrationCode"])
	}
	// パスワードハッシュがレスポンスに漏れない
	if _, ok := resp.User["passwordHash"]; ok {
		t.Error("response must not carry the password hash")
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("$2a$10$secret")) {
		t.Error("response body leaks the stored hash")
	}
}

func TestAuthHandler_Register_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"検証エラー", model.NewValidationError("email"), http.StatusBadRequest},
		{"メール重複", model.NewEmailTakenError(), http.StatusConflict},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAuthService{
				registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, *auth.TokenPair, error) {
					return nil, nil, tt.err
				},
			}
			h := NewAuthHandler(service, nil)

			rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{"email": "a@example.com"})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Login ---

func TestAuthHandler_Login_OK(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error) {
			return sampleUser(), samplePair(), nil
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "anita@example.com", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error) {
			return nil, nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "anita@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	var body apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if body.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %s, want %s", body.Code, model.ErrCodeInvalidCredentials)
	}
}

// --- AdminRegister ---

func TestAuthHandler_AdminRegister_Created(t *testing.T) {
	service := &mockAuthService{
		adminRegisterFn: func(ctx context.Context, input auth.AdminRegisterInput) (*model.User, *auth.TokenPair, error) {
			u := sampleUser()
			u.Role = model.RoleHospital
			u.IsVerified = true
			return u, samplePair(), nil
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.AdminRegister, "/api/auth/admin-register", map[string]string{
		"fullName": "City Hospital", "email": "h@example.com",
		"password": "pw", "confirmPassword": "pw",
		"userType": "Hospital", "registrationKey": "hospital-key",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Hospital registered successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.User["role"] != "hospital" {
		t.Errorf("role = %v, want hospital", resp.User["role"])
	}
}

func TestAuthHandler_AdminRegister_WrongKey(t *testing.T) {
	service := &mockAuthService{
		adminRegisterFn: func(ctx context.Context, input auth.AdminRegisterInput) (*model.User, *auth.TokenPair, error) {
			return nil, nil, model.NewInvalidRegistrationKeyError()
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.AdminRegister, "/api/auth/admin-register", map[string]string{
		"userType": "Admin", "registrationKey": "wrong",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// --- Refresh / Logout ---

func TestAuthHandler_Refresh_OK(t *testing.T) {
	service := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
			if refreshToken != "old-refresh" {
				t.Errorf("token = %s, want old-refresh", refreshToken)
			}
			return &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Refresh, "/api/auth/refresh", map[string]string{"token": "old-refresh"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken != "new-access" || resp.RefreshToken != "new-refresh" {
		t.Errorf("resp = %+v, want the rotated pair", resp)
	}
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	service := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
			return nil, model.NewInvalidTokenError()
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Refresh, "/api/auth/refresh", map[string]string{"token": "tampered"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthHandler_Logout_AlwaysOK(t *testing.T) {
	var deleted string
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, refreshToken string) error {
			deleted = refreshToken
			return nil
		},
	}
	h := NewAuthHandler(service, nil)

	rec := postJSON(t, h.Logout, "/api/auth/logout", map[string]string{"token": "the-token"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if deleted != "the-token" {
		t.Errorf("deleted = %q, want the-token", deleted)
	}

	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp["ok"] {
		t.Error("response should be {ok:true}")
	}
}

// ボディなしのログアウトも200を返す
func TestAuthHandler_Logout_NoBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// --- Me / Protected ---

func TestAuthHandler_Me_OK(t *testing.T) {
	service := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID int64) (*model.User, error) {
			if userID != 1 {
				t.Errorf("userID = %d, want 1", userID)
			}
			return sampleUser(), nil
		},
	}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), &model.Identity{UserID: 1, Role: model.RoleUser}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["user"]["email"] != "anita@example.com" {
		t.Errorf("user.email = %v", resp["user"]["email"])
	}
}

func TestAuthHandler_Me_UserGone(t *testing.T) {
	service := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID int64) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), &model.Identity{UserID: 99, Role: model.RoleUser}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAuthHandler_Me_NoIdentity(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthHandler_Protected(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), &model.Identity{UserID: 5, Role: model.RoleHospital}))
	rec := httptest.NewRecorder()
	h.Protected(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" {
		t.Error("response should carry a message")
	}
	if resp.User["userId"] != float64(5) || resp.User["role"] != "hospital" {
		t.Errorf("user = %v", resp.User)
	}
}

func TestAuthHandler_VerifyEmail_Stub(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?token=abc", nil)
	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["message"] == "" {
		t.Error("stub should return a message")
	}
}
