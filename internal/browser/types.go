package browser

import (
	"sync"
	"time"

	"talentAgent/internal/catalog"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// OverlaySnapshot кнопки, найденные внутри видимых поверх страницы слоёв.
type OverlaySnapshot struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Elements []ElementInfo `json:"elements"`
}

type ElementInfo struct {
	Tag      string `json:"tag"`
	Text     string `json:"text"`
	Selector string `json:"selector"`
	Role     string `json:"role,omitempty"`
	Label    string `json:"label,omitempty"`
	Priority int    `json:"priority"`
}

type PlaywrightBrowser struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	context       playwright.BrowserContext
	page          playwright.Page
	attached      bool
	cfg           Config
	cat           *catalog.Catalog
	log           *zap.Logger
	popupDetector PopupDetector
	mu            sync.RWMutex
}

type Config struct {
	// CDPURL адрес отладочного порта уже запущенного Chromium (http://127.0.0.1:9222).
	CDPURL string
	// RequireCDP запрещает запуск собственного браузера, если подключиться не удалось.
	RequireCDP bool
	// UseCurrentPage берёт самую свежую вкладку сайта вместо первой.
	UseCurrentPage bool
	// PreferHost домен сайта, вкладки которого выбираются в первую очередь.
	PreferHost string

	Headless        bool
	UserDataDir     string
	Display         string
	Timeout         time.Duration
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
	PollInterval    time.Duration
	ConnectRetries  int
	ConnectBackoff  time.Duration
}
