package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// 価格が解釈できない
var ErrInvalidPrice = errors.New("invalid price")

// 金額は最小通貨単位（セント）の整数で持つ。
// float の誤差を持ち込まないため、境界で一度だけ変換する。
type Money int64

const minorUnitDigits = 2

// 1商品あたりの単価上限（999,999,999.99）。
// 単価 × MaxLineQuantity が int64 に収まる範囲に抑える。
const MaxPrice Money = 99_999_999_999

// 数値・数値文字列・json.Number・decimal を受け付けて Money に変換する。
// 小数第3位は四捨五入。負の値と MaxPrice 超えは不正。
func ParsePrice(v any) (Money, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative", ErrInvalidPrice)
	}

	//IntPartはint64を超えると壊れるので先に比べる
	minor := d.Round(minorUnitDigits).Shift(minorUnitDigits)
	if minor.GreaterThan(decimal.NewFromInt(int64(MaxPrice))) {
		return 0, fmt.Errorf("%w: too large", ErrInvalidPrice)
	}
	return Money(minor.IntPart()), nil
}

// 解釈できない価格は 0 として扱う（NaN を表示させない）
func PriceOrZero(v any) Money {
	m, err := ParsePrice(v)
	if err != nil {
		return 0
	}
	return m
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	case Money:
		return t.Decimal(), nil
	case decimal.Decimal:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidPrice, t)
		}
		return decimal.NewFromFloat(t), nil
	case float32:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidPrice, t)
		}
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return parseDecimalString(t.String())
	case string:
		return parseDecimalString(t)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidPrice, v)
	}
}

func parseDecimalString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return d, nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorUnitDigits)
}

// 数量を掛ける。int64 を超える場合は ok=false。
func (m Money) Mul(qty int64) (Money, bool) {
	if m == 0 || qty == 0 {
		return 0, true
	}
	a := int64(m)
	if (a == -1 && qty == math.MinInt64) || (qty == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * qty
	if r/qty != a {
		return 0, false
	}
	return Money(r), true
}

// 足し算。int64 を超える場合は ok=false。
func (m Money) Add(other Money) (Money, bool) {
	r := m + other
	if (other > 0 && r < m) || (other < 0 && r > m) {
		return 0, false
	}
	return r, true
}

// 税率などを掛けてセント単位に丸める（四捨五入）
func (m Money) MulRate(rate decimal.Decimal) (Money, error) {
	minor := m.Decimal().Mul(rate).Round(minorUnitDigits).Shift(minorUnitDigits)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidPrice)
	}
	return Money(minor.IntPart()), nil
}

// 常に小数2桁
func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitDigits)
}

// JSONでは "119.97" のような文字列で返す
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}

	var v any = json.Number(raw)
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPrice, raw)
		}
		v = s
	}

	parsed, err := ParsePrice(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
