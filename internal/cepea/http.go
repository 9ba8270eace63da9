package cepea

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout  = 10 * time.Second
	defaultHTTPRetryMax = 3
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 3 * time.Second

	indicatorLabelSelector = "#imagenet-indicador-cafe .imagenet-center td.text"
)

// HTTPConfig содержит параметры HTTP-стратегии.
type HTTPConfig struct {
	URL          string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// HTTPStrategy загружает страницу индикатора обычным HTTP-запросом и разбирает HTML.
type HTTPStrategy struct {
	url    string
	client *retryablehttp.Client
}

// NewHTTPStrategy создаёт HTTP-стратегию с ограниченным числом повторов.
func NewHTTPStrategy(cfg HTTPConfig, logger *zap.Logger) *HTTPStrategy {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultHTTPRetryMax
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaultRetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = defaultRetryWaitMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = leveledLogger{logger.Sugar()}

	return &HTTPStrategy{
		url:    cfg.URL,
		client: client,
	}
}

// Name возвращает имя уровня.
func (s *HTTPStrategy) Name() string { return "http" }

// Fetch запрашивает страницу и извлекает цены из ячеек с подписями "Arábica" и "Robusta".
func (s *HTTPStrategy) Fetch(ctx context.Context) (*Quote, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return quoteFromTexts(labelledValue(doc, "Arábica"), labelledValue(doc, "Robusta")), nil
}

// labelledValue возвращает текст ячейки, следующей за ячейкой с подписью label.
func labelledValue(doc *goquery.Document, label string) string {
	cell := doc.Find(indicatorLabelSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), label)
	}).First()

	return strings.TrimSpace(cell.Next().Text())
}

// leveledLogger передаёт журнал retryablehttp в zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}
