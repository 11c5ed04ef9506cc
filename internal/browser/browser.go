package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talentAgent/internal/catalog"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var errNotLaunched = errors.New("браузер не запущен")

func New(cfg Config, cat *catalog.Catalog, log *zap.Logger) *PlaywrightBrowser {
	// Установка дефолтных таймаутов
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second // Navigate обычно дольше
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 10 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 150 * time.Millisecond
	}
	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = 3
	}
	if cfg.ConnectBackoff == 0 {
		cfg.ConnectBackoff = time.Second
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PlaywrightBrowser{
		cfg: cfg,
		cat: cat,
		log: log,
	}
}

func (b *PlaywrightBrowser) SetPopupDetector(detector PopupDetector) {
	b.popupDetector = detector
}

// getPage безопасно возвращает текущую страницу с read lock
func (b *PlaywrightBrowser) getPage() playwright.Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

// setPage безопасно устанавливает страницу с write lock
func (b *PlaywrightBrowser) setPage(page playwright.Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.page = page
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	return []string{
		"--no-sandbox",
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

// Launch подключается к уже открытому браузеру по CDP, чтобы сохранить ручной логин.
// Если это не удалось и RequireCDP не задан, запускает собственный Chromium.
func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("не удалось запустить playwright: %w", err)
	}
	b.pw = pw

	if b.cfg.CDPURL != "" {
		err := retryWithBackoff(ctx, b.cfg.ConnectRetries, b.cfg.ConnectBackoff, func() error {
			return b.attach(pw)
		})
		if err == nil {
			return nil
		}
		if b.cfg.RequireCDP || ctx.Err() != nil {
			return fmt.Errorf("подключение к %s: %w", b.cfg.CDPURL, err)
		}
		b.log.Warn("Не удалось подключиться по CDP, запускаем свой браузер",
			zap.String("cdp_url", b.cfg.CDPURL), zap.Error(err))
	}

	if b.cfg.UserDataDir != "" {
		return b.launchPersistent(pw)
	}
	return b.launchStandard(pw)
}

func (b *PlaywrightBrowser) attach(pw *playwright.Playwright) error {
	browser, err := pw.Chromium.ConnectOverCDP(b.cfg.CDPURL)
	if err != nil {
		return err
	}

	var candidates []candidate
	for _, c := range browser.Contexts() {
		for _, p := range c.Pages() {
			candidates = append(candidates, candidate{ctx: c, page: p, url: p.URL()})
		}
	}

	var (
		bctx playwright.BrowserContext
		page playwright.Page
	)
	if b.cfg.UseCurrentPage && len(candidates) > 0 {
		best := pickPage(candidates, b.cfg.PreferHost)
		bctx, page = best.ctx, best.page
	} else {
		if contexts := browser.Contexts(); len(contexts) > 0 {
			bctx = contexts[0]
		} else if bctx, err = browser.NewContext(); err != nil {
			return err
		}
		if pages := bctx.Pages(); len(pages) > 0 {
			page = pages[0]
		} else if page, err = bctx.NewPage(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.browser = browser
	b.context = bctx
	b.attached = true
	b.mu.Unlock()
	b.setPage(page)

	b.log.Info("Подключились к браузеру по CDP", zap.String("cdp_url", b.cfg.CDPURL), zap.String("page", page.URL()))
	return nil
}

type candidate struct {
	ctx  playwright.BrowserContext
	page playwright.Page
	url  string
}

// rankPage оценивает вкладку: обычные http-страницы выше служебных, вкладки сайта выше остальных.
func rankPage(url, host string) int {
	url = strings.ToLower(url)
	score := 0
	if strings.HasPrefix(url, "http") {
		score += 10
	}
	if host != "" && strings.Contains(url, strings.ToLower(host)) {
		score += 5
	}
	if strings.HasPrefix(url, "about:") || strings.HasPrefix(url, "chrome") {
		score -= 5
	}
	return score
}

// pickPage возвращает вкладку с наибольшим рангом; при равенстве побеждает более поздняя.
func pickPage(cs []candidate, host string) candidate {
	best := cs[0]
	bestRank := rankPage(best.url, host)
	for _, c := range cs[1:] {
		if r := rankPage(c.url, host); r >= bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

func (b *PlaywrightBrowser) launchPersistent(pw *playwright.Playwright) error {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browserContext, err := pw.Chromium.LaunchPersistentContext(b.cfg.UserDataDir, opts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.context = browserContext
	b.mu.Unlock()

	pages := browserContext.Pages()
	var page playwright.Page
	if len(pages) == 0 {
		page, err = browserContext.NewPage()
		if err != nil {
			return err
		}
	} else {
		page = pages[0]
	}

	b.setPage(page)
	return nil
}

func (b *PlaywrightBrowser) launchStandard(pw *playwright.Playwright) error {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.browser = browser
	b.mu.Unlock()

	page, err := browser.NewPage()
	if err != nil {
		return err
	}

	b.setPage(page)
	return nil
}

func (b *PlaywrightBrowser) Navigate(ctx context.Context, url string) error {
	page := b.getPage()
	if page == nil {
		return errNotLaunched
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(b.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("navigate timeout after %v", b.cfg.NavigateTimeout)
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	if err := b.ClosePopups(ctx); err != nil {
		b.log.Debug("Попапы после навигации не закрыты", zap.Error(err))
	}
	return nil
}

// URL адрес текущей страницы.
func (b *PlaywrightBrowser) URL() string {
	page := b.getPage()
	if page == nil {
		return ""
	}
	return page.URL()
}

// Attached сообщает, что браузер чужой (подключение по CDP), и закрывать его нельзя.
func (b *PlaywrightBrowser) Attached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached
}

// Close освобождает ресурсы. При подключении по CDP вкладки пользователя остаются открытыми:
// Browser.Close лишь разрывает соединение.
func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.context != nil && !b.attached {
		if err := b.context.Close(); err != nil {
			return err
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.pw != nil {
		return b.pw.Stop()
	}
	return nil
}
