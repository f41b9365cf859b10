// Package volunteer はボランティア登録と身分証カードのドメインロジックを提供する。
package volunteer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/repository"
)

// Service はボランティア登録のサービス層。
type Service struct {
	repo repository.VolunteerRepository
	// now は時刻の取得関数。テストで固定するため差し替え可能にしている。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.VolunteerRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Input はボランティア登録の入力。任意項目は空文字のとき未指定として扱う。
type Input struct {
	FullName     string
	Email        string
	Phone        string
	Occupation   string
	Interests    string
	Availability string
	Skills       string
	PhotoURL     string
}

// Register はボランティアを登録し、人間可読のボランティアIDを採番する。
// IDはDB採番の行IDから導出する（例: SECT-VOL-2026-0042）ため、挿入後に更新で保存する。
func (s *Service) Register(ctx context.Context, input Input) (*model.Volunteer, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.Phone)
	availability := strings.TrimSpace(input.Availability)

	var missing []string
	if fullName == "" {
		missing = append(missing, "fullName")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if availability == "" {
		missing = append(missing, "availability")
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError(missing...)
	}

	v := &model.Volunteer{
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		Occupation:   optional(input.Occupation),
		Interests:    optional(input.Interests),
		Availability: availability,
		Skills:       optional(input.Skills),
		PhotoURL:     optional(input.PhotoURL),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("ボランティアレコードの保存に失敗しました: %w", err)
	}

	v.VolunteerID = s.deriveVolunteerID(v.ID)
	if err := s.repo.SetVolunteerID(ctx, v.ID, v.VolunteerID); err != nil {
		return nil, fmt.Errorf("ボランティアIDの保存に失敗しました: %w", err)
	}

	slog.Info("ボランティアを登録しました",
		slog.Int64("id", v.ID),
		slog.String("volunteer_id", v.VolunteerID),
	)

	return v, nil
}

// FindByVolunteerID は人間可読IDでボランティアを取得する。
func (s *Service) FindByVolunteerID(ctx context.Context, volunteerID string) (*model.Volunteer, error) {
	v, err := s.repo.FindByVolunteerID(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("ボランティアの検索に失敗しました: %w", err)
	}
	if v == nil {
		return nil, model.NewVolunteerNotFoundError(volunteerID)
	}
	return v, nil
}

// List はボランティアレコードを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Volunteer, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ボランティア一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// deriveVolunteerID はDB採番の行IDから人間可読IDを導出する。
func (s *Service) deriveVolunteerID(id int64) string {
	return fmt.Sprintf("SECT-VOL-%d-%04d", s.now().Year(), id)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
