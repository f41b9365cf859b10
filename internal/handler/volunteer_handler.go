package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varshith1024/mirav-backend/internal/metrics"
	"github.com/varshith1024/mirav-backend/internal/model"
	"github.com/varshith1024/mirav-backend/internal/volunteer"
)

// VolunteerServiceInterface はボランティアハンドラーが必要とするサービスインターフェース。
type VolunteerServiceInterface interface {
	// Register はボランティアを登録し人間可読IDを採番する。
	Register(ctx context.Context, input volunteer.Input) (*model.Volunteer, error)
	// FindByVolunteerID は人間可読IDでボランティアを取得する。
	FindByVolunteerID(ctx context.Context, volunteerID string) (*model.Volunteer, error)
	// List はボランティアレコードを新しい順に返す。
	List(ctx context.Context) ([]*model.Volunteer, error)
}

// VolunteerHandler はボランティア登録のHTTPハンドラー。
type VolunteerHandler struct {
	service   VolunteerServiceInterface
	collector metrics.MetricsCollector
}

// NewVolunteerHandler はVolunteerHandlerを生成する。collectorはnil可。
func NewVolunteerHandler(service VolunteerServiceInterface, collector metrics.MetricsCollector) *VolunteerHandler {
	return &VolunteerHandler{
		service:   service,
		collector: collector,
	}
}

type volunteerRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Occupation   string `json:"occupation"`
	Interests    string `json:"interests"`
	Availability string `json:"availability"`
	Skills       string `json:"skills"`
	PhotoURL     string `json:"photoUrl"`
}

// volunteerResponse はボランティアレコードのAPIレスポンス。
type volunteerResponse struct {
	ID           int64     `json:"id"`
	VolunteerID  string    `json:"volunteerId"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Occupation   *string   `json:"occupation,omitempty"`
	Interests    *string   `json:"interests,omitempty"`
	Availability string    `json:"availability"`
	Skills       *string   `json:"skills,omitempty"`
	PhotoURL     *string   `json:"photoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toVolunteerResponse(v *model.Volunteer) volunteerResponse {
	return volunteerResponse{
		ID:           v.ID,
		VolunteerID:  v.VolunteerID,
		FullName:     v.FullName,
		Email:        v.Email,
		Phone:        v.Phone,
		Occupation:   v.Occupation,
		Interests:    v.Interests,
		Availability: v.Availability,
		Skills:       v.Skills,
		PhotoURL:     v.PhotoURL,
		CreatedAt:    v.CreatedAt,
	}
}

// Submit はボランティア登録フォームの送信を処理する。
// POST /api/volunteers/submit-volunteer
func (h *VolunteerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	v, err := h.service.Register(r.Context(), volunteer.Input{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Occupation:   req.Occupation,
		Interests:    req.Interests,
		Availability: req.Availability,
		Skills:       req.Skills,
		PhotoURL:     req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordFormSubmission("volunteer")
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"volunteer_id": v.VolunteerID,
		"message":      "Volunteer registered successfully",
	})
}

// IDCard はボランティア身分証カードをHTMLで返す。
// クライアント側の印刷・PDF化を想定してContent-Dispositionを付与する。
// GET /api/volunteers/id-card/{volunteerId}
func (h *VolunteerHandler) IDCard(w http.ResponseWriter, r *http.Request) {
	volunteerID := chi.URLParam(r, "volunteerId")

	v, err := h.service.FindByVolunteerID(r.Context(), volunteerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.html", volunteer.ShortID(v.VolunteerID)))
	if err := volunteer.RenderIDCard(w, v); err != nil {
		handleServiceError(w, err)
		return
	}
}

// List はボランティアレコードの一覧を返す。管理者ロールが必要。
// GET /api/volunteers
func (h *VolunteerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]volunteerResponse, len(list))
	for i, v := range list {
		results[i] = toVolunteerResponse(v)
	}
	writeJSON(w, http.StatusOK, results)
}
