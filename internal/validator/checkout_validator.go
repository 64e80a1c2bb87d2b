package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storefront/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
	cvvRe    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

type checkoutValidator struct {
	now func() time.Time
}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{now: time.Now}
}

// テスト用（期限判定の基準時刻を固定）
func NewCheckoutValidatorAt(now func() time.Time) usecase.CheckoutValidator {
	return &checkoutValidator{now: now}
}

// チェックアウトフォームを検証
func (v *checkoutValidator) ValidateCheckout(ctx context.Context, in usecase.CheckoutInput) error {
	// 必須チェック
	required := []struct {
		field string
		value string
	}{
		{"email", in.Email},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"address", in.Address},
		{"city", in.City},
		{"zip_code", in.ZipCode},
		{"country", in.Country},
		{"card_number", in.CardNumber},
		{"expiry_date", in.ExpiryDate},
		{"cvv", in.CVV},
		{"name_on_card", in.NameOnCard},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field)
		}
	}

	// email形式
	if !isEmailLike(strings.TrimSpace(in.Email)) {
		return invalid("email")
	}

	// カード番号は数字12〜19桁（空白・ハイフンは無視）
	digits := strings.NewReplacer(" ", "", "-", "").Replace(in.CardNumber)
	if len(digits) < 12 || len(digits) > 19 || !allDigits(digits) {
		return invalid("card_number")
	}

	if !v.validExpiry(strings.TrimSpace(in.ExpiryDate)) {
		return invalid("expiry_date")
	}

	if !cvvRe.MatchString(strings.TrimSpace(in.CVV)) {
		return invalid("cvv")
	}

	return nil
}

// MM/YY 形式で、その月末まで有効
func (v *checkoutValidator) validExpiry(s string) bool {
	m := expiryRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	now := v.now()
	expiresAt := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	return now.Before(expiresAt)
}

func invalid(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, field)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
