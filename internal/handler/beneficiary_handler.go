package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/varshith1024/mirav-backend/internal/beneficiary"
	"github.com/varshith1024/mirav-backend/internal/metrics"
	"github.com/varshith1024/mirav-backend/internal/model"
)

// BeneficiaryServiceInterface は受益者ハンドラーが必要とするサービスインターフェース。
type BeneficiaryServiceInterface interface {
	// Submit は受益者フォームを検証・サニタイズして保存する。
	Submit(ctx context.Context, input beneficiary.Input) (*model.Beneficiary, error)
	// List は受益者レコードを新しい順に返す。
	List(ctx context.Context) ([]*model.Beneficiary, error)
}

// BeneficiaryHandler は受益者フォームのHTTPハンドラー。
type BeneficiaryHandler struct {
	service   BeneficiaryServiceInterface
	collector metrics.MetricsCollector
}

// NewBeneficiaryHandler はBeneficiaryHandlerを生成する。collectorはnil可。
func NewBeneficiaryHandler(service BeneficiaryServiceInterface, collector metrics.MetricsCollector) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		service:   service,
		collector: collector,
	}
}

type beneficiaryRequest struct {
	FullName            string `json:"fullName"`
	DOB                 string `json:"dob"`
	Gender              string `json:"gender"`
	Aadhaar             string `json:"aadhaar"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	City                string `json:"city"`
	State               string `json:"state"`
	Pincode             string `json:"pincode"`
	Category            string `json:"category"`
	LandSize            string `json:"landSize"`
	CropType            string `json:"cropType"`
	Institution         string `json:"institution"`
	Course              string `json:"course"`
	IncomeCertificateNo string `json:"incomeCertificateNo"`
	LandDocumentNo      string `json:"landDocumentNo"`
	StudentIDNo         string `json:"studentIdNo"`
}

// beneficiaryResponse は受益者レコードのAPIレスポンス。
type beneficiaryResponse struct {
	ID                  int64     `json:"id"`
	FullName            string    `json:"fullName"`
	DOB                 string    `json:"dob"`
	Gender              string    `json:"gender"`
	Aadhaar             string    `json:"aadhaar"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Address             string    `json:"address"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	Pincode             string    `json:"pincode"`
	Category            string    `json:"category"`
	LandSize            *string   `json:"landSize,omitempty"`
	CropType            *string   `json:"cropType,omitempty"`
	Institution         *string   `json:"institution,omitempty"`
	Course              *string   `json:"course,omitempty"`
	IncomeCertificateNo string    `json:"incomeCertificateNo"`
	LandDocumentNo      *string   `json:"landDocumentNo,omitempty"`
	StudentIDNo         *string   `json:"studentIdNo,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toBeneficiaryResponse(b *model.Beneficiary) beneficiaryResponse {
	return beneficiaryResponse{
		ID:                  b.ID,
		FullName:            b.FullName,
		DOB:                 b.DOB,
		Gender:              b.Gender,
		Aadhaar:             b.Aadhaar,
		Email:               b.Email,
		Phone:               b.Phone,
		Address:             b.Address,
		City:                b.City,
		State:               b.State,
		Pincode:             b.Pincode,
		Category:            b.Category,
		LandSize:            b.LandSize,
		CropType:            b.CropType,
		Institution:         b.Institution,
		Course:              b.Course,
		IncomeCertificateNo: b.IncomeCertificateNo,
		LandDocumentNo:      b.LandDocumentNo,
		StudentIDNo:         b.StudentIDNo,
		CreatedAt:           b.CreatedAt,
	}
}

// Submit は受益者フォームの送信を処理する。
// POST /api/beneficiaries/submit
func (h *BeneficiaryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req beneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("body"))
		return
	}

	_, err := h.service.Submit(r.Context(), beneficiary.Input{
		FullName:            req.FullName,
		DOB:                 req.DOB,
		Gender:              req.Gender,
		Aadhaar:             req.Aadhaar,
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		Pincode:             req.Pincode,
		Category:            req.Category,
		LandSize:            req.LandSize,
		CropType:            req.CropType,
		Institution:         req.Institution,
		Course:              req.Course,
		IncomeCertificateNo: req.IncomeCertificateNo,
		LandDocumentNo:      req.LandDocumentNo,
		StudentIDNo:         req.StudentIDNo,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordFormSubmission("beneficiary")
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Beneficiary form submitted successfully",
	})
}

// List は受益者レコードの一覧を返す。病院ロールが必要。
// GET /api/beneficiaries
func (h *BeneficiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]beneficiaryResponse, len(list))
	for i, b := range list {
		results[i] = toBeneficiaryResponse(b)
	}
	writeJSON(w, http.StatusOK, results)
}
