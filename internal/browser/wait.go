package browser

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

func loadState(state string) *playwright.LoadState {
	switch strings.ToLower(state) {
	case "domcontentloaded":
		return playwright.LoadStateDomcontentloaded
	case "networkidle":
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}

func (b *PlaywrightBrowser) WaitForLoadState(ctx context.Context, state string) error {
	page := b.getPage()
	if page == nil {
		return errNotLaunched
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: playwright.Float(b.cfg.Timeout.Seconds() * 1000),
	}
	return mapErr("load "+state, page.WaitForLoadState(opts))
}

// WaitForLoad ждёт разбор документа после перехода на другую страницу выдачи.
// Тишина в сети не обязательна: на сайте бывают бесконечные запросы аналитики.
func (b *PlaywrightBrowser) WaitForLoad(ctx context.Context) error {
	if err := b.WaitForLoadState(ctx, "domcontentloaded"); err != nil {
		return err
	}
	if err := b.WaitForLoadState(ctx, "networkidle"); err != nil {
		b.log.Debug("Сеть не успокоилась, продолжаем", zap.Error(err))
	}
	return nil
}
