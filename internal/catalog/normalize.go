package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	colonSpaceRe   = regexp.MustCompile(`^([^:]+):\s+(.+)$`)
	containsDQRe   = regexp.MustCompile(`:contains\("([^"]*)"\)`)
	containsSQRe   = regexp.MustCompile(`:contains\('([^']*)'\)`)
	containsBareRe = regexp.MustCompile(`:contains\(([^)'"]+)\)`)

	pseudoClasses = []string{
		":hover", ":focus", ":active", ":visited", ":link", ":checked",
		":disabled", ":enabled", ":first-child", ":last-child", ":nth-child", ":nth-of-type",
		":has-text", ":has", ":not", ":is", ":contains", ":visible",
	}
)

// NormalizeSelector приводит селектор к синтаксису Playwright: jQuery :contains() заменяется
// на :has-text(), а запись вида "button: Текст" превращается в button:has-text("Текст").
// Второе значение сообщает, был ли селектор изменён.
func NormalizeSelector(selector string) (string, bool) {
	if selector == "" {
		return selector, false
	}
	out := selector

	if m := colonSpaceRe.FindStringSubmatch(out); m != nil && !hasPseudo(m[1], out) {
		tag := strings.TrimSpace(m[1])
		text := strings.TrimSpace(m[2])
		if tag != "" && text != "" {
			out = tag + `:has-text("` + strings.ReplaceAll(text, `"`, `\"`) + `")`
		}
	}

	out = containsDQRe.ReplaceAllStringFunc(out, func(s string) string {
		text := containsDQRe.FindStringSubmatch(s)[1]
		return `:has-text("` + text + `")`
	})
	out = containsSQRe.ReplaceAllStringFunc(out, func(s string) string {
		text := containsSQRe.FindStringSubmatch(s)[1]
		return `:has-text('` + text + `')`
	})
	out = containsBareRe.ReplaceAllStringFunc(out, func(s string) string {
		text := strings.TrimSpace(containsBareRe.FindStringSubmatch(s)[1])
		return `:has-text("` + text + `")`
	})

	return out, out != selector
}

func hasPseudo(head, full string) bool {
	for _, p := range pseudoClasses {
		if strings.HasSuffix(head, p) || strings.Contains(full, p+"(") {
			return true
		}
	}
	return false
}

// ValidateSelector отсекает явно ошибочные значения: пустые строки и URL.
func ValidateSelector(selector string) error {
	s := strings.TrimSpace(selector)
	if s == "" {
		return errors.New("селектор не может быть пустым")
	}
	if strings.Contains(s, "://") {
		return fmt.Errorf("селектор не может быть URL: %s", selector)
	}
	return nil
}
