// Package validation содержит функции валидации входных данных.
package validation

import (
	"math"
	"strings"
	"unicode"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 13
)

// CanonicalPhone приводит номер телефона к виду из одних цифр.
// Возвращает false, если количество цифр вне допустимого диапазона.
func CanonicalPhone(phone string) (string, bool) {
	var b strings.Builder
	b.Grow(len(phone))

	for _, ch := range phone {
		if unicode.IsDigit(ch) && ch < unicode.MaxASCII {
			b.WriteRune(ch)
		}
	}

	digits := b.String()
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", false
	}

	return digits, true
}

// IsPositiveFinite проверяет, что число конечно и строго больше нуля.
func IsPositiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
