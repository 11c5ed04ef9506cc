package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"talentAgent/internal/dom"

	"github.com/playwright-community/playwright-go"
)

// element дескриптор, который отдаёт адаптер. Locator ленивый, поэтому перечитывает DOM
// при каждом обращении.
type element struct {
	loc  playwright.Locator
	desc string
}

func (e *element) Describe() string { return e.desc }

const typeDelayMs = 40

// setValueJS выставляет значение поля, генерирует input/change и синхронизирует подпись
// Choices.js, если поле обёрнуто виджетом.
const setValueJS = `(el, value) => {
	if (el.tagName === 'SELECT' && !Array.from(el.options).some(o => o.value === value)) {
		return false;
	}
	el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	const opt = el.tagName === 'SELECT' ? el.selectedOptions[0] : null;
	const wrap = el.closest('.choices');
	const single = wrap && wrap.querySelector('.choices__list--single .choices__item');
	if (single && opt) {
		single.textContent = opt.textContent;
	}
	return true;
}`

func (b *PlaywrightBrowser) actionTimeout() *float64 {
	return playwright.Float(float64(b.cfg.ActionTimeout.Milliseconds()))
}

// attrSelector строит CSS фильтр точного совпадения атрибута.
func attrSelector(name, value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`[%s="%s"]`, name, r.Replace(value))
}

// mapErr переводит ошибки playwright в ошибки dom, сохраняя исходную причину.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w (%w)", op, dom.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// exactText регулярное выражение для текста элемента целиком, без учёта регистра.
func exactText(text string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(strings.TrimSpace(text)) + `\s*$`)
}

func asElement(el dom.Element) (*element, error) {
	e, ok := el.(*element)
	if !ok || e == nil {
		return nil, fmt.Errorf("чужой дескриптор элемента: %w", dom.ErrNotFound)
	}
	return e, nil
}

// locator разрешает логическое имя через каталог и накладывает область, атрибут и текст.
func (b *PlaywrightBrowser) locator(q dom.Query) (playwright.Locator, error) {
	page := b.getPage()
	if page == nil {
		return nil, errNotLaunched
	}
	sel, ok := b.cat.Selector(q.Name)
	if !ok {
		return nil, fmt.Errorf("селектор %q не задан в каталоге: %w", q.Name, dom.ErrNotFound)
	}

	var loc playwright.Locator
	if q.Scope != nil {
		scope, err := asElement(q.Scope)
		if err != nil {
			return nil, err
		}
		loc = scope.loc.Locator(sel)
	} else {
		loc = page.Locator(sel)
	}

	if q.Attr != "" {
		loc = loc.And(page.Locator(attrSelector(q.Attr, q.Value)))
	}
	switch {
	case q.Text != "" && q.Exact:
		loc = loc.Filter(playwright.LocatorFilterOptions{HasText: exactText(q.Text)})
	case q.Text != "":
		loc = loc.Filter(playwright.LocatorFilterOptions{HasText: q.Text})
	}
	return loc, nil
}

func (b *PlaywrightBrowser) FindAll(ctx context.Context, q dom.Query) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := b.locator(q)
	if err != nil {
		return nil, err
	}
	all, err := loc.All()
	if err != nil {
		return nil, mapErr(q.String(), err)
	}
	out := make([]dom.Element, len(all))
	for i, l := range all {
		out[i] = &element{loc: l, desc: fmt.Sprintf("%s[%d]", q, i)}
	}
	return out, nil
}

func (b *PlaywrightBrowser) IsVisible(ctx context.Context, el dom.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	ok, err := e.loc.IsVisible()
	return ok, mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) IsEnabled(ctx context.Context, el dom.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	ok, err := e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: b.actionTimeout()})
	return ok, mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) Attribute(ctx context.Context, el dom.Element, name string) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	v, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: b.actionTimeout()})
	return v, mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) Text(ctx context.Context, el dom.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	v, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: b.actionTimeout()})
	return v, mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) Value(ctx context.Context, el dom.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	v, err := e.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: b.actionTimeout()})
	return v, mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) Click(ctx context.Context, el dom.Element, opts dom.ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := asElement(el)
	if err != nil {
		return err
	}
	b.scrollIntoView(e.loc)

	err = e.loc.Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: b.actionTimeout(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w (%w)", e.desc, dom.ErrClickFailed, err)
	}
	return nil
}

// Type очищает поле и набирает текст посимвольно: фильтр Choices.js реагирует только на keyup.
func (b *PlaywrightBrowser) Type(ctx context.Context, el dom.Element, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := asElement(el)
	if err != nil {
		return err
	}
	if err := e.loc.Fill("", playwright.LocatorFillOptions{Timeout: b.actionTimeout()}); err != nil {
		return mapErr(e.desc, err)
	}
	err = e.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay:   playwright.Float(typeDelayMs),
		Timeout: b.actionTimeout(),
	})
	return mapErr(e.desc, err)
}

func (b *PlaywrightBrowser) Press(ctx context.Context, el dom.Element, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if el == nil {
		page := b.getPage()
		if page == nil {
			return errNotLaunched
		}
		return mapErr("keyboard", page.Keyboard().Press(key))
	}
	e, err := asElement(el)
	if err != nil {
		return err
	}
	return mapErr(e.desc, e.loc.Press(key, playwright.LocatorPressOptions{Timeout: b.actionTimeout()}))
}

func waitState(s dom.State) *playwright.WaitForSelectorState {
	switch s {
	case dom.StateHidden:
		return playwright.WaitForSelectorStateHidden
	case dom.StateAttached:
		return playwright.WaitForSelectorStateAttached
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

func (b *PlaywrightBrowser) WaitFor(ctx context.Context, q dom.Query, state dom.State, timeout time.Duration) (dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := b.locator(q)
	if err != nil {
		return nil, err
	}
	first := loc.First()
	err = first.WaitFor(playwright.LocatorWaitForOptions{
		State:   waitState(state),
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, mapErr(q.String(), err)
	}
	if state == dom.StateHidden {
		return nil, nil
	}
	return &element{loc: first, desc: q.String()}, nil
}

// WaitForAny опрашивает описания по кругу, пустые пропускает.
func (b *PlaywrightBrowser) WaitForAny(ctx context.Context, qs []dom.Query, timeout time.Duration) (int, dom.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		for i, q := range qs {
			if q.IsZero() {
				continue
			}
			if el, err := dom.FirstVisible(ctx, b, q); err == nil {
				return i, el, nil
			}
		}
		if !time.Now().Before(deadline) {
			return -1, nil, fmt.Errorf("сигналы не появились за %v: %w", timeout, dom.ErrTimeout)
		}

		t := time.NewTimer(b.cfg.PollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return -1, nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (b *PlaywrightBrowser) SetValue(ctx context.Context, q dom.Query, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := b.locator(q)
	if err != nil {
		return err
	}
	res, err := loc.First().Evaluate(setValueJS, value, playwright.LocatorEvaluateOptions{Timeout: b.actionTimeout()})
	if err != nil {
		return mapErr(q.String(), err)
	}
	if ok, _ := res.(bool); !ok {
		return fmt.Errorf("%s: значения %q нет среди вариантов", q, value)
	}
	return nil
}

var _ dom.Adapter = (*PlaywrightBrowser)(nil)
