package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// maxOverlayElements ограничивает размер запроса к модели.
const maxOverlayElements = 40

const overlayJS = `(overlaySelector) => {
	const isVisible = (el) => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return style.display !== 'none' && style.visibility !== 'hidden' &&
			style.opacity !== '0' && rect.width > 0 && rect.height > 0;
	};

	const layers = Array.from(document.querySelectorAll(overlaySelector)).filter(isVisible);
	document.querySelectorAll('body *').forEach(el => {
		const style = window.getComputedStyle(el);
		if (style.position === 'fixed' && parseInt(style.zIndex || '0', 10) >= 1000 && isVisible(el)) {
			layers.push(el);
		}
	});

	function buildSelector(el) {
		if (el.id) {
			return '#' + CSS.escape(el.id);
		}
		if (el.getAttribute('data-testid')) {
			return '[data-testid="' + el.getAttribute('data-testid') + '"]';
		}
		const ariaLabel = el.getAttribute('aria-label');
		if (ariaLabel) {
			return el.tagName.toLowerCase() + '[aria-label="' + ariaLabel + '"]';
		}
		if (el.className && typeof el.className === 'string') {
			const classes = el.className.split(' ').filter(c => c);
			if (classes.length > 0) {
				return el.tagName.toLowerCase() + '.' + classes.map(c => CSS.escape(c)).join('.');
			}
		}
		const text = (el.textContent || '').trim();
		if (text && text.length <= 30) {
			return el.tagName.toLowerCase() + ':has-text("' + text.replace(/"/g, '\\"') + '")';
		}
		return el.tagName.toLowerCase();
	}

	function priority(el, text, label) {
		let p = 1;
		const hint = (text + ' ' + label + ' ' + (el.className || '')).toLowerCase();
		if (/close|dismiss|закрыть|×|✕|no thanks|accept|got it/.test(hint)) p += 5;
		if (el.tagName === 'BUTTON') p += 2;
		if (label) p += 1;
		return p;
	}

	const seen = new Set();
	const out = [];
	layers.forEach(layer => {
		layer.querySelectorAll('button, a, [role=button], [data-dismiss], .close').forEach(el => {
			if (seen.has(el) || !isVisible(el)) return;
			seen.add(el);
			const text = (el.textContent || '').trim().substring(0, 80);
			const label = el.getAttribute('aria-label') || el.getAttribute('title') || '';
			out.push({
				tag: el.tagName.toLowerCase(),
				text: text,
				selector: buildSelector(el),
				role: el.getAttribute('role') || '',
				label: label,
				priority: priority(el, text, label)
			});
		});
	});
	return out;
}`

// overlaySnapshot собирает кликабельные элементы видимых оверлеев.
func (b *PlaywrightBrowser) overlaySnapshot(ctx context.Context) (*OverlaySnapshot, error) {
	page := b.getPage()
	if page == nil {
		return nil, errNotLaunched
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := page.Evaluate(overlayJS, overlaySelector)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения JavaScript: %w", err)
	}
	elements, err := decodeElements(raw)
	if err != nil {
		return nil, err
	}

	title, err := page.Title()
	if err != nil {
		title = ""
	}
	return &OverlaySnapshot{URL: page.URL(), Title: title, Elements: elements}, nil
}

// decodeElements разбирает результат Evaluate, отбрасывает записи без селектора и
// оставляет самые приоритетные элементы.
func decodeElements(raw any) ([]ElementInfo, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора элементов: %w", err)
	}
	var all []ElementInfo
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("ошибка разбора элементов: %w", err)
	}

	out := all[:0]
	for _, el := range all {
		if el.Selector != "" {
			out = append(out, el)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > maxOverlayElements {
		out = out[:maxOverlayElements]
	}
	return out, nil
}
