package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// ハンドラ境界でHTTPステータスへ変換され、そのままレスポンスボディになる。
// 内部原因（SQL・スタック等）は含めず、詳細はサーバーログのみに残す。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, form, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidRegKey      = "INVALID_REGISTRATION_KEY"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeVolunteerNotFound  = "VOLUNTEER_NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は必須項目の欠落・不正入力エラーを生成する。
func NewValidationError(fields ...string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("Required fields are missing or invalid: %s", strings.Join(fields, ", ")),
		Category: "validation",
		Action:   "Check the listed fields and retry.",
	}
}

// NewEmailTakenError は重複メールの登録エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email already registered.",
		Category: "validation",
		Action:   "Log in with this email or use a different one.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// 「該当ユーザーなし」と「パスワード不一致」を区別しない固定メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials.",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewInvalidTokenError は署名不正・期限切れトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid or expired token.",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewForbiddenError はロール不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden: insufficient role.",
		Category: "auth",
		Action:   "Contact an administrator if you need access.",
	}
}

// NewInvalidRegistrationKeyError は管理者登録キー不一致のエラーを生成する。
func NewInvalidRegistrationKeyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRegKey,
		Message:  "Invalid registration key.",
		Category: "auth",
		Action:   "Verify the key issued for your user type.",
	}
}

// NewUserNotFoundError は身元解決後にユーザー行が消えていた場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewVolunteerNotFoundError はボランティアID未検出のエラーを生成する。
func NewVolunteerNotFoundError(volunteerID string) *APIError {
	return &APIError{
		Code:     ErrCodeVolunteerNotFound,
		Message:  fmt.Sprintf("Volunteer not found: %s", volunteerID),
		Category: "form",
		Action:   "Check the volunteer ID printed on the confirmation.",
	}
}

// NewInternalError は内部エラーの汎用レスポンスを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Wait a moment and retry.",
	}
}
