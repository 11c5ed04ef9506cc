package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// scrollIntoView прокручивает элемент в область видимости перед кликом.
// Ошибка прокрутки не фатальна: Click сам попробует ещё раз.
func (b *PlaywrightBrowser) scrollIntoView(loc playwright.Locator) {
	if visible, err := loc.IsVisible(); err == nil && !visible {
		return
	}

	err := loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(5000),
	})
	if err == nil {
		return
	}

	// Если ScrollIntoViewIfNeeded не работает, используем простой scrollIntoView
	_, err = loc.Evaluate(`el => el.scrollIntoView({ behavior: 'auto', block: 'center', inline: 'center' })`, nil)
	if err != nil {
		b.log.Debug("Не удалось прокрутить к элементу", zap.Error(err))
		return
	}
	time.Sleep(200 * time.Millisecond)
}
