package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// 登録コードの文字集合（大文字英数字36種）。
const regCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// regCodeLength はプレフィックスを除いたコード本体の長さ。
const regCodeLength = 6

// regCodeAttempts は一意制約違反時に再生成を試みる上限回数。
const regCodeAttempts = 5

// newRegistrationCode は TRUST- プレフィックス付きのランダム登録コードを生成する。
// 一意性はDBの制約で担保し、衝突時は呼び出し側が再生成する。
func newRegistrationCode() (string, error) {
	buf := make([]byte, regCodeLength)
	max := big.NewInt(int64(len(regCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("登録コードの生成に失敗しました: %w", err)
		}
		buf[i] = regCodeAlphabet[n.Int64()]
	}
	return "TRUST-" + string(buf), nil
}
