// Package beneficiary は受益者登録フォームのドメインロジックを提供する。
package beneficiary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/repository"
)

// Service は受益者フォームのサービス層。
// 自由入力欄はStrictPolicyでサニタイズし、HTMLを一切残さない。
type Service struct {
	repo   repository.BeneficiaryRepository
	policy *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.BeneficiaryRepository) *Service {
	return &Service{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
	}
}

// Input は受益者フォームの入力。任意項目は空文字のとき未指定として扱う。
type Input struct {
	FullName            string
	DOB                 string
	Gender              string
	Aadhaar             string
	Email               string
	Phone               string
	Address             string
	City                string
	State               string
	Pincode             string
	Category            string
	LandSize            string
	CropType            string
	Institution         string
	Course              string
	IncomeCertificateNo string
	LandDocumentNo      string
	StudentIDNo         string
}

// Submit は受益者フォームを検証・サニタイズして保存する。
func (s *Service) Submit(ctx context.Context, input Input) (*model.Beneficiary, error) {
	required := []struct {
		field string
		value string
	}{
		{"fullName", input.FullName},
		{"dob", input.DOB},
		{"gender", input.Gender},
		{"aadhaar", input.Aadhaar},
		{"email", input.Email},
		{"phone", input.Phone},
		{"address", input.Address},
		{"city", input.City},
		{"state", input.State},
		{"pincode", input.Pincode},
		{"category", input.Category},
		{"incomeCertificateNo", input.IncomeCertificateNo},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError(missing...)
	}

	b := &model.Beneficiary{
		FullName:            s.clean(input.FullName),
		DOB:                 s.clean(input.DOB),
		Gender:              s.clean(input.Gender),
		Aadhaar:             s.clean(input.Aadhaar),
		Email:               strings.ToLower(s.clean(input.Email)),
		Phone:               s.clean(input.Phone),
		Address:             s.clean(input.Address),
		City:                s.clean(input.City),
		State:               s.clean(input.State),
		Pincode:             s.clean(input.Pincode),
		Category:            s.clean(input.Category),
		LandSize:            s.cleanOptional(input.LandSize),
		CropType:            s.cleanOptional(input.CropType),
		Institution:         s.cleanOptional(input.Institution),
		Course:              s.cleanOptional(input.Course),
		IncomeCertificateNo: s.clean(input.IncomeCertificateNo),
		LandDocumentNo:      s.cleanOptional(input.LandDocumentNo),
		StudentIDNo:         s.cleanOptional(input.StudentIDNo),
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("受益者レコードの保存に失敗しました: %w", err)
	}

	slog.Info("受益者フォームを受け付けました",
		slog.Int64("beneficiary_id", b.ID),
		slog.String("category", b.Category),
	)

	return b, nil
}

// List は受益者レコードを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Beneficiary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("受益者一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func (s *Service) cleanOptional(v string) *string {
	cleaned := s.clean(v)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
