package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// PostgresBeneficiaryRepo はPostgreSQLを使用した受益者リポジトリ。
type PostgresBeneficiaryRepo struct {
	db *sql.DB
}

// NewPostgresBeneficiaryRepo はPostgresBeneficiaryRepoを生成する。
func NewPostgresBeneficiaryRepo(db *sql.DB) *PostgresBeneficiaryRepo {
	return &PostgresBeneficiaryRepo{db: db}
}

// Create は受益者レコードを挿入し、採番されたIDと作成時刻を書き戻す。
func (r *PostgresBeneficiaryRepo) Create(ctx context.Context, b *model.Beneficiary) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO beneficiaries (
		     full_name, dob, gender, aadhaar, email, phone,
		     address, city, state, pincode, category,
		     land_size, crop_type, institution, course,
		     income_certificate_no, land_document_no, student_id_no
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		 RETURNING id, created_at`,
		b.FullName, b.DOB, b.Gender, b.Aadhaar, b.Email, b.Phone,
		b.Address, b.City, b.State, b.Pincode, b.Category,
		b.LandSize, b.CropType, b.Institution, b.Course,
		b.IncomeCertificateNo, b.LandDocumentNo, b.StudentIDNo,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert beneficiary: %w", err)
	}
	return nil
}

// List は受益者レコードを新しい順に返す。
func (r *PostgresBeneficiaryRepo) List(ctx context.Context) ([]*model.Beneficiary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, dob, gender, aadhaar, email, phone,
		        address, city, state, pincode, category,
		        land_size, crop_type, institution, course,
		        income_certificate_no, land_document_no, student_id_no, created_at
		 FROM beneficiaries
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	defer rows.Close()

	var result []*model.Beneficiary
	for rows.Next() {
		b := &model.Beneficiary{}
		if err := rows.Scan(
			&b.ID, &b.FullName, &b.DOB, &b.Gender, &b.Aadhaar, &b.Email, &b.Phone,
			&b.Address, &b.City, &b.State, &b.Pincode, &b.Category,
			&b.LandSize, &b.CropType, &b.Institution, &b.Course,
			&b.IncomeCertificateNo, &b.LandDocumentNo, &b.StudentIDNo, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate beneficiaries: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ BeneficiaryRepository = (*PostgresBeneficiaryRepo)(nil)
