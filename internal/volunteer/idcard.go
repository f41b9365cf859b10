package volunteer

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/varshith1024/mirav-backend/internal/model"
)

// placeholderPhotoURL は写真未登録のボランティアに表示するダミー画像。
const placeholderPhotoURL = "https://via.placeholder.com/120"

// idCardTemplate はフロントエンドのカード表示と同じマークアップ。
// 印刷用クライアントがそのままPDF化できるよう単一のHTML文書として描画する。
var idCardTemplate = template.Must(template.New("idcard").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="flex items-center justify-center min-h-screen bg-white">
  <div class="w-80 bg-white rounded-xl shadow-lg border-2 border-amber-700 overflow-hidden">

    <!-- Header -->
    <div class="bg-green-100 py-3 px-3 flex items-center gap-3">
      <div class="w-14 h-14">
        <img src="https://mirav-nu.vercel.app/logo.png" class="w-full h-full object-contain"/>
      </div>
      <div>
        <h2 class="text-amber-800 text-base font-semibold leading-tight">
          Sri Ekadanta Charitable Trust
        </h2>
        <p class="text-green-700 text-sm">
          Volunteer Identification Card
        </p>
      </div>
    </div>

    <!-- Body -->
    <div class="p-4 flex flex-col items-center">
      <img
        src="{{.PhotoURL}}"
        class="w-28 h-28 rounded-full border-4 border-stone-600 mb-3 object-cover"
      />

      <h3 class="text-lg font-semibold text-stone-700">
        {{.FullName}}
      </h3>

      <p class="text-sm text-gray-500 mb-3">
        ID: {{.ShortID}}
      </p>

      <div class="text-sm text-gray-700 w-full space-y-1">
        <p><strong>Email:</strong> {{.Email}}</p>
        <p><strong>Phone:</strong> {{.Phone}}</p>
      </div>
    </div>

    <!-- Footer -->
    <div class="bg-gray-100 text-center py-2 text-xs text-gray-600">
      Authorized Volunteer • Trust Verified
    </div>
  </div>
</body>
</html>
`))

type idCardData struct {
	FullName string
	ShortID  string
	Email    string
	Phone    string
	PhotoURL string
}

// ShortID は表示用の短縮ID（完全IDの末尾セグメント）を返す。
// 例: SECT-VOL-2026-0042 → 0042
func ShortID(volunteerID string) string {
	parts := strings.Split(volunteerID, "-")
	return parts[len(parts)-1]
}

// RenderIDCard はボランティアの身分証カードHTMLをwへ描画する。
func RenderIDCard(w io.Writer, v *model.Volunteer) error {
	photoURL := placeholderPhotoURL
	if v.PhotoURL != nil && *v.PhotoURL != "" {
		photoURL = *v.PhotoURL
	}
	data := idCardData{
		FullName: v.FullName,
		ShortID:  ShortID(v.VolunteerID),
		Email:    v.Email,
		Phone:    v.Phone,
		PhotoURL: photoURL,
	}
	if err := idCardTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("身分証カードの描画に失敗しました: %w", err)
	}
	return nil
}
