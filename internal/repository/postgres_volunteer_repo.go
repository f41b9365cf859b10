package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// PostgresVolunteerRepo はPostgreSQLを使用したボランティアリポジトリ。
type PostgresVolunteerRepo struct {
	db *sql.DB
}

// NewPostgresVolunteerRepo はPostgresVolunteerRepoを生成する。
func NewPostgresVolunteerRepo(db *sql.DB) *PostgresVolunteerRepo {
	return &PostgresVolunteerRepo{db: db}
}

// Create はボランティアレコードを挿入し、採番されたIDと作成時刻を書き戻す。
// volunteer_idはこの時点では空で、SetVolunteerIDで後から確定する。
func (r *PostgresVolunteerRepo) Create(ctx context.Context, v *model.Volunteer) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO volunteers (full_name, email, phone, occupation, interests, availability, skills, photo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		v.FullName, v.Email, v.Phone, v.Occupation, v.Interests, v.Availability, v.Skills, v.PhotoURL,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert volunteer: %w", err)
	}
	return nil
}

// SetVolunteerID はDB採番IDから導出した人間可読IDを保存する。
func (r *PostgresVolunteerRepo) SetVolunteerID(ctx context.Context, id int64, volunteerID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE volunteers SET volunteer_id = $1 WHERE id = $2`,
		volunteerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set volunteer ID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("volunteer not found: %d", id)
	}
	return nil
}

// FindByVolunteerID は人間可読IDでボランティアを検索する。見つからない場合はnilを返す。
func (r *PostgresVolunteerRepo) FindByVolunteerID(ctx context.Context, volunteerID string) (*model.Volunteer, error) {
	v := &model.Volunteer{}
	var vid sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, volunteer_id, full_name, email, phone, occupation, interests, availability, skills, photo_url, created_at
		 FROM volunteers WHERE volunteer_id = $1`,
		volunteerID,
	).Scan(&v.ID, &vid, &v.FullName, &v.Email, &v.Phone, &v.Occupation, &v.Interests, &v.Availability, &v.Skills, &v.PhotoURL, &v.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find volunteer: %w", err)
	}

	v.VolunteerID = vid.String
	return v, nil
}

// List はボランティアレコードを新しい順に返す。
func (r *PostgresVolunteerRepo) List(ctx context.Context) ([]*model.Volunteer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, volunteer_id, full_name, email, phone, occupation, interests, availability, skills, photo_url, created_at
		 FROM volunteers
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	defer rows.Close()

	var result []*model.Volunteer
	for rows.Next() {
		v := &model.Volunteer{}
		var vid sql.NullString
		if err := rows.Scan(
			&v.ID, &vid, &v.FullName, &v.Email, &v.Phone,
			&v.Occupation, &v.Interests, &v.Availability, &v.Skills, &v.PhotoURL, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		v.VolunteerID = vid.String
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate volunteers: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ VolunteerRepository = (*PostgresVolunteerRepo)(nil)
