package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talentAgent/internal/catalog"
	"talentAgent/internal/llm"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type PopupDetector interface {
	DetectPopup(ctx context.Context, snapshot *OverlaySnapshot) (*llm.PopupInfo, error)
}

type PopupAnalyzer interface {
	AnalyzePopup(ctx context.Context, elements string) (*llm.PopupInfo, error)
}

// LLMPopupDetector спрашивает модель, какой кнопкой закрыть неизвестный оверлей.
type LLMPopupDetector struct {
	llmClient PopupAnalyzer
}

func NewLLMPopupDetector(llmClient PopupAnalyzer) *LLMPopupDetector {
	return &LLMPopupDetector{
		llmClient: llmClient,
	}
}

func (d *LLMPopupDetector) DetectPopup(ctx context.Context, snapshot *OverlaySnapshot) (*llm.PopupInfo, error) {
	if snapshot == nil || len(snapshot.Elements) == 0 {
		return &llm.PopupInfo{HasPopup: false}, nil
	}

	elementsJSON, err := json.Marshal(snapshot.Elements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal elements: %w", err)
	}

	return d.llmClient.AnalyzePopup(ctx, string(elementsJSON))
}

var closeButtonSelectors = []string{
	"[role='dialog'] button[aria-label*='close' i]",
	"[role='dialog'] button[aria-label*='закрыть' i]",
	".modal.show button.close",
	".popup button.close",
	"[data-dismiss='modal']",
	".close-button",
	"button:has-text('×')",
	"button:has-text('✕')",
	"[aria-label='Close']",
	"[aria-label='Закрыть']",
}

// overlaySelector видимые слои, которые могут перекрывать карточки.
const overlaySelector = "[role='dialog'], [aria-modal='true'], .modal.show, .popup, [class*='overlay']"

const popupSettle = 500 * time.Millisecond

// ClosePopups закрывает известные оверлеи по списку селекторов. Если после этого на странице
// остался видимый слой и подключён детектор, селектор кнопки закрытия подсказывает модель.
func (b *PlaywrightBrowser) ClosePopups(ctx context.Context) error {
	page := b.getPage()
	if page == nil {
		return errNotLaunched
	}

	closed := b.closeKnownPopups(ctx, page)
	if closed > 0 {
		b.log.Debug("Закрыты всплывающие окна", zap.Int("count", closed))
	}

	if b.popupDetector == nil || !b.overlayVisible(page) {
		return nil
	}

	snapshot, err := b.overlaySnapshot(ctx)
	if err != nil {
		return fmt.Errorf("ошибка снимка оверлея: %w", err)
	}

	popupInfo, err := b.popupDetector.DetectPopup(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("ошибка анализа оверлея: %w", err)
	}
	if !popupInfo.HasPopup || popupInfo.CloseSelector == "" {
		return nil
	}

	if err := catalog.ValidateSelector(popupInfo.CloseSelector); err != nil {
		return fmt.Errorf("невалидный селектор от модели: %w", err)
	}
	selector, _ := catalog.NormalizeSelector(popupInfo.CloseSelector)

	btn := page.Locator(selector).First()
	if visible, err := btn.IsVisible(); err != nil || !visible {
		return nil
	}
	if err := btn.Click(playwright.LocatorClickOptions{Timeout: b.actionTimeout()}); err != nil {
		return mapErr(selector, err)
	}
	b.log.Info("Оверлей закрыт по подсказке модели",
		zap.String("selector", selector), zap.String("popup", popupInfo.PopupDescription))
	sleepCtx(ctx, popupSettle)
	return nil
}

func (b *PlaywrightBrowser) closeKnownPopups(ctx context.Context, page playwright.Page) int {
	closed := 0
	for _, selector := range closeButtonSelectors {
		if ctx.Err() != nil {
			return closed
		}
		buttons, err := page.Locator(selector).All()
		if err != nil {
			continue
		}
		for _, btn := range buttons {
			if visible, err := btn.IsVisible(); err != nil || !visible {
				continue
			}
			if err := btn.Click(playwright.LocatorClickOptions{Timeout: b.actionTimeout()}); err == nil {
				closed++
				sleepCtx(ctx, popupSettle)
			}
		}
	}
	return closed
}

func (b *PlaywrightBrowser) overlayVisible(page playwright.Page) bool {
	layers, err := page.Locator(overlaySelector).All()
	if err != nil {
		return false
	}
	for _, l := range layers {
		if visible, err := l.IsVisible(); err == nil && visible {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
