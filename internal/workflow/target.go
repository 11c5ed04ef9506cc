package workflow

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Target значение, которое должно оказаться выбранным в контроле.
// Identifier сравнивается точно и имеет приоритет, TextFragment ищется в подписи.
type Target struct {
	Identifier   string
	TextFragment string
}

// searchPrefixLen сколько символов фрагмента вводить в поле поиска.
const searchPrefixLen = 24

var identifierRe = regexp.MustCompile(`\b(\d{5,})\b`)

// ParseTarget собирает цель из явного идентификатора и свободного запроса.
// Если идентификатор не задан, он извлекается из запроса (первая группа из 5+ цифр),
// и тогда запрос целиком заменяется идентификатором: остаток строки не обязан
// совпадать с подписью варианта.
func ParseTarget(identifier, query string) Target {
	t := Target{
		Identifier:   strings.TrimSpace(identifier),
		TextFragment: strings.TrimSpace(query),
	}
	if t.Identifier == "" {
		if m := identifierRe.FindStringSubmatch(t.TextFragment); m != nil {
			t.Identifier = m[1]
			t.TextFragment = ""
		}
	}
	if t.TextFragment == t.Identifier {
		t.TextFragment = ""
	}
	return t
}

func (t Target) IsZero() bool {
	return t.Identifier == "" && t.TextFragment == ""
}

// Validate проверяет, что задан хотя бы один способ сопоставления.
func (t Target) Validate() error {
	if t.IsZero() {
		return &Error{
			Kind:    KindConfiguration,
			Op:      "target",
			Message: "не задан ни идентификатор, ни фрагмент текста",
		}
	}
	return nil
}

// searchTerm текст для поля поиска: идентификатор или начало фрагмента.
func (t Target) searchTerm() string {
	if t.Identifier != "" {
		return t.Identifier
	}
	if utf8.RuneCountInString(t.TextFragment) <= searchPrefixLen {
		return t.TextFragment
	}
	return string([]rune(t.TextFragment)[:searchPrefixLen])
}

func (t Target) String() string {
	switch {
	case t.Identifier != "" && t.TextFragment != "":
		return t.Identifier + " (" + t.TextFragment + ")"
	case t.Identifier != "":
		return t.Identifier
	default:
		return t.TextFragment
	}
}
