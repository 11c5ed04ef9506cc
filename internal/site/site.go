// Package site описывает действия на конкретном сайте: поиск карточек исполнителей,
// открытие окна действия, переход по страницам. Селекторы берутся из каталога.
package site

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"talentAgent/internal/catalog"
	"talentAgent/internal/dom"
	"talentAgent/internal/runner"
	"talentAgent/internal/workflow"

	"go.uber.org/zap"
)

// Navigator операции уровня страницы, которых нет у dom.Adapter.
type Navigator interface {
	WaitForLoad(ctx context.Context) error
	URL() string
}

// PopupCloser убирает посторонние окна перед работой с карточкой.
type PopupCloser interface {
	ClosePopups(ctx context.Context) error
}

type Config struct {
	MenuTimeout  time.Duration
	ModalTimeout time.Duration
	StepDelay    time.Duration
}

var profileRe = regexp.MustCompile(`/(?:talents|talent|profile|users)/([A-Za-z0-9_-]+)`)

// ErrCardNotFound карточка пропала со страницы между поиском и открытием.
var ErrCardNotFound = errors.New("карточка не найдена")

type base struct {
	dom    dom.Adapter
	nav    Navigator
	cat    *catalog.Catalog
	log    *zap.Logger
	events workflow.EventRecorder
	popups PopupCloser
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration)
}

type Option func(*base)

func WithEvents(e workflow.EventRecorder) Option {
	return func(b *base) {
		if e != nil {
			b.events = e
		}
	}
}

func WithPopupCloser(p PopupCloser) Option {
	return func(b *base) {
		b.popups = p
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(b *base) {
		b.sleep = fn
	}
}

func newBase(a dom.Adapter, nav Navigator, cat *catalog.Catalog, cfg Config, log *zap.Logger, opts []Option) base {
	if cfg.MenuTimeout == 0 {
		cfg.MenuTimeout = 3 * time.Second
	}
	if cfg.ModalTimeout == 0 {
		cfg.ModalTimeout = 8 * time.Second
	}
	if cfg.StepDelay == 0 {
		cfg.StepDelay = 300 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	b := base{
		dom:    a,
		nav:    nav,
		cat:    cat,
		log:    log,
		events: nopEvents{},
		cfg:    cfg,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func q(name string) dom.Query {
	return dom.Query{Name: name}
}

// Items находит видимые карточки текущей страницы.
func (b *base) Items(ctx context.Context) ([]runner.Item, error) {
	cards, err := b.dom.FindAll(ctx, q(catalog.TalentCard))
	if err != nil {
		return nil, fmt.Errorf("поиск карточек: %w", err)
	}

	items := make([]runner.Item, 0, len(cards))
	for i, card := range cards {
		if ok, err := b.dom.IsVisible(ctx, card); err != nil || !ok {
			continue
		}
		id, url := b.identify(ctx, card)
		items = append(items, runner.Item{ID: id, URL: url, Index: i})
	}
	b.events.Record("page_items", zap.Int("cards", len(cards)), zap.Int("items", len(items)))
	return items, nil
}

// identify извлекает идентификатор исполнителя: сначала из атрибутов карточки,
// затем из ссылки на профиль.
func (b *base) identify(ctx context.Context, card dom.Element) (string, string) {
	var id string
	for _, attr := range b.cat.IDAttributes() {
		if v, err := b.dom.Attribute(ctx, card, attr); err == nil && strings.TrimSpace(v) != "" {
			id = strings.TrimSpace(v)
			break
		}
	}

	var url string
	if link, err := dom.First(ctx, b.dom, q(catalog.TalentLink).Within(card)); err == nil {
		if href, err := b.dom.Attribute(ctx, link, "href"); err == nil {
			url = href
			if id == "" {
				if m := profileRe.FindStringSubmatch(href); m != nil {
					id = m[1]
				}
			}
		}
	}
	return id, url
}

// card заново находит карточку элемента: дескрипторы не переживают изменений DOM.
func (b *base) card(ctx context.Context, it runner.Item) (dom.Element, error) {
	cards, err := b.dom.FindAll(ctx, q(catalog.TalentCard))
	if err != nil {
		return nil, err
	}
	if it.Index < len(cards) {
		if it.ID == "" {
			return cards[it.Index], nil
		}
		if id, _ := b.identify(ctx, cards[it.Index]); id == it.ID {
			return cards[it.Index], nil
		}
	}
	if it.ID != "" {
		for _, c := range cards {
			if id, _ := b.identify(ctx, c); id == it.ID {
				return c, nil
			}
		}
	}
	return nil, ErrCardNotFound
}

// prepare убирает баннер cookies и всплывающие окна.
func (b *base) prepare(ctx context.Context) {
	if btn, err := dom.FirstVisible(ctx, b.dom, q(catalog.Cookie)); err == nil {
		if err := b.dom.Click(ctx, btn, dom.ClickOptions{}); err == nil {
			b.log.Debug("Баннер cookies закрыт")
			b.events.Record("cookies_accepted")
		}
	}
	if b.popups != nil {
		if err := b.popups.ClosePopups(ctx); err != nil {
			b.log.Debug("Не удалось закрыть всплывающие окна", zap.Error(err))
		}
	}
}

// click нажимает элемент, при неудаче повторяет с force.
func (b *base) click(ctx context.Context, el dom.Element) error {
	if err := b.dom.Click(ctx, el, dom.ClickOptions{}); err != nil {
		return b.dom.Click(ctx, el, dom.ClickOptions{Force: true})
	}
	return nil
}

// closeOverlay закрывает окно кнопкой закрытия внутри scope, иначе клавишей Escape.
func (b *base) closeOverlay(ctx context.Context, scope, closeBtn dom.Query) {
	if el, err := dom.FirstVisible(ctx, b.dom, scope); err == nil {
		if btn, err := dom.FirstVisible(ctx, b.dom, closeBtn.Within(el)); err == nil {
			if err := b.dom.Click(ctx, btn, dom.ClickOptions{Force: true}); err == nil {
				return
			}
		}
	}
	_ = b.dom.Press(ctx, nil, "Escape")
}

// NextPage переходит по ссылке «дальше». Отсутствующая или выключенная ссылка означает конец.
func (b *base) NextPage(ctx context.Context) (bool, error) {
	link, err := dom.FirstVisible(ctx, b.dom, q(catalog.NextPage))
	if err != nil {
		b.log.Info("Ссылки на следующую страницу нет")
		return false, nil
	}
	if v, _ := b.dom.Attribute(ctx, link, "aria-disabled"); v == "true" {
		b.log.Info("Следующая страница недоступна (последняя)")
		return false, nil
	}
	if en, err := b.dom.IsEnabled(ctx, link); err == nil && !en {
		return false, nil
	}

	if err := b.click(ctx, link); err != nil {
		return false, fmt.Errorf("переход на следующую страницу: %w", err)
	}
	if b.nav != nil {
		if err := b.nav.WaitForLoad(ctx); err != nil {
			b.log.Debug("Страница не успокоилась после перехода", zap.Error(err))
		}
		b.events.Record("page_next", zap.String("url", b.nav.URL()))
	}
	return true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

type nopEvents struct{}

func (nopEvents) Record(string, ...zap.Field) {}
