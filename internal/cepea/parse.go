package cepea

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParsePrice разбирает цену в формате "R$ 1.234,56".
// Для нераспознанного текста возвращает 0 и false.
func ParsePrice(text string) (float64, bool) {
	s := strings.ReplaceAll(text, "R$", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0':
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func quoteFromTexts(arabicaText, robustaText string) *Quote {
	q := &Quote{Date: time.Now()}

	var ok bool
	if q.Arabica, ok = ParsePrice(arabicaText); !ok {
		q.IsFallback = true
	}
	if q.Robusta, ok = ParsePrice(robustaText); !ok {
		q.IsFallback = true
	}

	return q
}
