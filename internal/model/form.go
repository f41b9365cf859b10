package model

import "time"

// Beneficiary は受益者登録フォームの1件を表す。
// カテゴリ（farmer/student等）により任意項目の組み合わせが変わる。
type Beneficiary struct {
	ID                  int64
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
	LandSize            *string
	CropType            *string
	Institution         *string
	Course              *string
	IncomeCertificateNo string
	LandDocumentNo      *string
	StudentIDNo         *string
	CreatedAt           time.Time
}

// Volunteer はボランティア登録の1件を表す。
// VolunteerIDは挿入後にDB採番のIDから導出して保存する（例: SECT-VOL-2026-0042）。
type Volunteer struct {
	ID           int64
	VolunteerID  string
	FullName     string
	Email        string
	Phone        string
	Occupation   *string
	Interests    *string
	Availability string
	Skills       *string
	PhotoURL     *string
	CreatedAt    time.Time
}
