package workflow

import "strings"

// ControlState наблюдаемое состояние выпадающего списка.
type ControlState struct {
	Open      bool
	Committed string // значение, которое отправит форма
	Label     string // отображаемая подпись выбранного варианта
}

// Satisfies двусторонняя проверка: значение формы И подпись должны соответствовать цели.
// Одной подписи недостаточно: после клика UI может показать вариант, которого нет в форме.
func (s ControlState) Satisfies(t Target) bool {
	if t.IsZero() {
		return false
	}
	if t.Identifier != "" && s.Committed != t.Identifier {
		return false
	}
	if t.Identifier == "" && s.Committed == "" {
		return false
	}
	if t.TextFragment != "" && !containsFold(s.Label, t.TextFragment) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
