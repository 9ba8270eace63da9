package cepea

import (
	"context"
	"time"
)

const (
	staticArabica = 2560.75
	staticRobusta = 1678.9
)

// StaticStrategy возвращает фиксированную пару цен и никогда не завершается ошибкой.
type StaticStrategy struct{}

// Name возвращает имя уровня.
func (StaticStrategy) Name() string { return "static" }

// Fetch возвращает статические цены с признаком IsFallback.
func (StaticStrategy) Fetch(context.Context) (*Quote, error) {
	return &Quote{
		Arabica:    staticArabica,
		Robusta:    staticRobusta,
		Date:       time.Now(),
		IsFallback: true,
	}, nil
}
