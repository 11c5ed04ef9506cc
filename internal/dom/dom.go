// Package dom описывает контракт адаптера DOM: поиск элементов по декларативному описанию,
// клики, ввод текста, чтение атрибутов и ожидание терминальных сигналов.
// Строки CSS селекторов сюда не попадают: Query.Name это логический ключ каталога,
// который разрешает конкретная реализация адаптера.
package dom

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout возвращается, когда ожидание не дождалось нужного состояния.
	ErrTimeout = errors.New("dom: timeout")
	// ErrClickFailed возвращается, когда по элементу не удалось кликнуть даже после прокрутки.
	ErrClickFailed = errors.New("dom: click failed")
	// ErrNotFound возвращается, когда описание не сопоставилось ни с одним элементом.
	ErrNotFound = errors.New("dom: element not found")
)

// State состояние элемента, которого ждёт WaitFor.
type State string

const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateAttached State = "attached"
)

// Element непрозрачный дескриптор элемента. Дескрипторы нельзя кэшировать между ожиданиями:
// DOM меняется, поэтому ядро каждый раз переспрашивает FindAll.
type Element interface {
	Describe() string
}

// Query декларативное описание элемента.
type Query struct {
	Name  string  // ключ каталога селекторов
	Scope Element // искать только внутри этого элемента
	Attr  string  // точное совпадение атрибута Attr == Value
	Value string
	Text  string // подстрока видимого текста без учёта регистра
	// Exact требует, чтобы текст совпадал с Text целиком (без учёта регистра и крайних пробелов).
	Exact bool
}

// IsZero сообщает, что описание не задано.
func (q Query) IsZero() bool {
	return q.Name == ""
}

// Within возвращает копию описания, ограниченную элементом scope.
func (q Query) Within(scope Element) Query {
	q.Scope = scope
	return q
}

// WithAttr возвращает копию описания с фильтром по атрибуту.
func (q Query) WithAttr(name, value string) Query {
	q.Attr = name
	q.Value = value
	return q
}

// WithText возвращает копию описания с фильтром по тексту.
func (q Query) WithText(text string) Query {
	q.Text = text
	return q
}

// WithExactText возвращает копию описания с фильтром по точному тексту.
func (q Query) WithExactText(text string) Query {
	q.Text = text
	q.Exact = true
	return q
}

func (q Query) String() string {
	s := q.Name
	if q.Attr != "" {
		s += "[" + q.Attr + "=" + q.Value + "]"
	}
	if q.Text != "" && q.Exact {
		s += "=" + q.Text
	} else if q.Text != "" {
		s += "~" + q.Text
	}
	return s
}

type ClickOptions struct {
	Force bool
}

// Adapter минимальный набор возможностей браузера, который нужен сценариям.
// Любой вызов может завершиться ошибкой.
type Adapter interface {
	FindAll(ctx context.Context, q Query) ([]Element, error)
	IsVisible(ctx context.Context, el Element) (bool, error)
	IsEnabled(ctx context.Context, el Element) (bool, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Text(ctx context.Context, el Element) (string, error)
	// Value возвращает значение, которое форма реально отправит (value у select/input).
	Value(ctx context.Context, el Element) (string, error)
	Click(ctx context.Context, el Element, opts ClickOptions) error
	Type(ctx context.Context, el Element, text string) error
	// Press нажимает клавишу на элементе; nil означает клавиатуру страницы.
	Press(ctx context.Context, el Element, key string) error
	WaitFor(ctx context.Context, q Query, state State, timeout time.Duration) (Element, error)
	// WaitForAny ждёт первый видимый элемент из списка и возвращает его индекс.
	WaitForAny(ctx context.Context, qs []Query, timeout time.Duration) (int, Element, error)
	// SetValue принудительно выставляет значение формы и генерирует input/change.
	SetValue(ctx context.Context, q Query, value string) error
}

// First возвращает первый найденный элемент или ErrNotFound.
func First(ctx context.Context, a Adapter, q Query) (Element, error) {
	els, err := a.FindAll(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	return els[0], nil
}

// FirstVisible возвращает первый видимый элемент или ErrNotFound.
func FirstVisible(ctx context.Context, a Adapter, q Query) (Element, error) {
	els, err := a.FindAll(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if ok, err := a.IsVisible(ctx, el); err == nil && ok {
			return el, nil
		}
	}
	return nil, ErrNotFound
}

// Visible как AnyVisible, но ошибка адаптера возвращается, а не считается отсутствием элемента.
// false без ошибки означает, что страница прочитана и видимых совпадений нет.
func Visible(ctx context.Context, a Adapter, q Query) (bool, error) {
	els, err := a.FindAll(ctx, q)
	if err != nil {
		return false, err
	}
	for _, el := range els {
		ok, err := a.IsVisible(ctx, el)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// AnyVisible сообщает, виден ли хотя бы один элемент по описанию.
func AnyVisible(ctx context.Context, a Adapter, q Query) bool {
	_, err := FirstVisible(ctx, a, q)
	return err == nil
}
