package cepea

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultNavigationTimeout = 60 * time.Second

// extractScript читает вторую ячейку первой строки таблиц арабики и робусты.
const extractScript = `(() => {
  const cell = (table) => {
    if (!table) return '';
    const row = table.querySelector('tbody tr');
    const cells = row ? row.querySelectorAll('td') : [];
    return cells.length > 1 ? (cells[1].textContent || '').trim() : '';
  };
  const tables = document.querySelectorAll('table.imagenet-table');
  return {
    arabica: cell(document.querySelector('#imagenet-indicador1')),
    robusta: cell(tables.length >= 2 ? tables[1] : null),
  };
})()`

// BrowserConfig содержит параметры стратегии headless-браузера.
type BrowserConfig struct {
	URL      string
	ExecPath string
	Timeout  time.Duration
}

// BrowserStrategy открывает страницу индикатора в headless Chrome, поддерживая контент,
// отрисованный JavaScript.
type BrowserStrategy struct {
	cfg BrowserConfig
}

// NewBrowserStrategy создаёт стратегию headless-браузера.
func NewBrowserStrategy(cfg BrowserConfig) *BrowserStrategy {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultNavigationTimeout
	}
	return &BrowserStrategy{cfg: cfg}
}

// Name возвращает имя уровня.
func (s *BrowserStrategy) Name() string { return "browser" }

type cellTexts struct {
	Arabica string `json:"arabica"`
	Robusta string `json:"robusta"`
}

// Fetch запускает браузер, загружает страницу и извлекает текст ячеек с ценами.
func (s *BrowserStrategy) Fetch(ctx context.Context) (*Quote, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if s.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, s.cfg.Timeout)
	defer cancel()

	var texts cellTexts
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(extractScript, &texts),
	)
	if err != nil {
		return nil, fmt.Errorf("browser scrape: %w", err)
	}

	return quoteFromTexts(texts.Arabica, texts.Robusta), nil
}
