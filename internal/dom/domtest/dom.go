// Package domtest содержит in-memory реализацию dom.Adapter для тестов.
package domtest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talentAgent/internal/dom"
)

// Node элемент фейкового DOM.
type Node struct {
	Name     string
	Attrs    map[string]string
	Label    string
	Val      string
	Hidden   bool
	Disabled bool
	Parent   *Node

	OnClick func(n *Node) error
	OnType  func(n *Node, text string)
	OnPress func(n *Node, key string)

	id int
}

func (n *Node) Describe() string {
	return fmt.Sprintf("%s#%d", n.Name, n.id)
}

func (n *Node) visible() bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Hidden {
			return false
		}
	}
	return true
}

func (n *Node) within(scope *Node) bool {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur == scope {
			return true
		}
	}
	return false
}

// DOM плоский список узлов в порядке документа.
type DOM struct {
	nodes  []*Node
	nextID int

	// SetValueHooks обработчики SetValue по имени описания.
	SetValueHooks map[string]func(value string) error
	// ClickErrors принудительные ошибки клика по имени узла.
	ClickErrors map[string]error

	Calls    int
	Clicks   []string
	PageKeys []string
}

func New() *DOM {
	return &DOM{
		SetValueHooks: make(map[string]func(string) error),
		ClickErrors:   make(map[string]error),
	}
}

// Add добавляет узел в конец документа.
func (d *DOM) Add(n *Node) *Node {
	d.nextID++
	n.id = d.nextID
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	d.nodes = append(d.nodes, n)
	return n
}

// Remove удаляет узел вместе с потомками.
func (d *DOM) Remove(n *Node) {
	kept := d.nodes[:0]
	for _, cur := range d.nodes {
		if cur == n || cur.within(n) {
			continue
		}
		kept = append(kept, cur)
	}
	d.nodes = kept
}

// Nodes возвращает узлы с заданным именем.
func (d *DOM) Nodes(name string) []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.Name == name {
			out = append(out, n)
		}
	}
	return out
}

func (d *DOM) match(q dom.Query) []*Node {
	var scope *Node
	if q.Scope != nil {
		scope, _ = q.Scope.(*Node)
	}
	var out []*Node
	for _, n := range d.nodes {
		if n.Name != q.Name {
			continue
		}
		if scope != nil && !n.within(scope) {
			continue
		}
		if q.Attr != "" && n.Attrs[q.Attr] != q.Value {
			continue
		}
		if q.Text != "" && q.Exact && !strings.EqualFold(strings.TrimSpace(n.Label), strings.TrimSpace(q.Text)) {
			continue
		}
		if q.Text != "" && !strings.Contains(strings.ToLower(n.Label), strings.ToLower(q.Text)) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func node(el dom.Element) (*Node, error) {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil, dom.ErrNotFound
	}
	return n, nil
}

func (d *DOM) FindAll(ctx context.Context, q dom.Query) ([]dom.Element, error) {
	d.Calls++
	nodes := d.match(q)
	out := make([]dom.Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

func (d *DOM) IsVisible(ctx context.Context, el dom.Element) (bool, error) {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return false, err
	}
	return n.visible(), nil
}

func (d *DOM) IsEnabled(ctx context.Context, el dom.Element) (bool, error) {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return false, err
	}
	return !n.Disabled, nil
}

func (d *DOM) Attribute(ctx context.Context, el dom.Element, name string) (string, error) {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return "", err
	}
	return n.Attrs[name], nil
}

func (d *DOM) Text(ctx context.Context, el dom.Element) (string, error) {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return "", err
	}
	return n.Label, nil
}

func (d *DOM) Value(ctx context.Context, el dom.Element) (string, error) {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return "", err
	}
	return n.Val, nil
}

func (d *DOM) Click(ctx context.Context, el dom.Element, opts dom.ClickOptions) error {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return err
	}
	if err := d.ClickErrors[n.Name]; err != nil {
		return err
	}
	if !n.visible() {
		return fmt.Errorf("%s: %w", n.Describe(), dom.ErrClickFailed)
	}
	d.Clicks = append(d.Clicks, n.Name)
	if n.OnClick != nil {
		return n.OnClick(n)
	}
	return nil
}

func (d *DOM) Type(ctx context.Context, el dom.Element, text string) error {
	d.Calls++
	n, err := node(el)
	if err != nil {
		return err
	}
	if !n.visible() {
		return fmt.Errorf("%s: элемент скрыт", n.Describe())
	}
	n.Val = text
	if n.OnType != nil {
		n.OnType(n, text)
	}
	return nil
}

func (d *DOM) Press(ctx context.Context, el dom.Element, key string) error {
	d.Calls++
	if el == nil {
		d.PageKeys = append(d.PageKeys, key)
		return nil
	}
	n, err := node(el)
	if err != nil {
		return err
	}
	if n.OnPress != nil {
		n.OnPress(n, key)
	}
	return nil
}

func (d *DOM) WaitFor(ctx context.Context, q dom.Query, state dom.State, timeout time.Duration) (dom.Element, error) {
	d.Calls++
	nodes := d.match(q)
	switch state {
	case dom.StateAttached:
		if len(nodes) > 0 {
			return nodes[0], nil
		}
	case dom.StateHidden:
		for _, n := range nodes {
			if n.visible() {
				return nil, fmt.Errorf("%s: %w", q, dom.ErrTimeout)
			}
		}
		return nil, nil
	default:
		for _, n := range nodes {
			if n.visible() {
				return n, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", q, dom.ErrTimeout)
}

func (d *DOM) WaitForAny(ctx context.Context, qs []dom.Query, timeout time.Duration) (int, dom.Element, error) {
	d.Calls++
	for i, q := range qs {
		if q.IsZero() {
			continue
		}
		for _, n := range d.match(q) {
			if n.visible() {
				return i, n, nil
			}
		}
	}
	return -1, nil, fmt.Errorf("сигналы не появились: %w", dom.ErrTimeout)
}

func (d *DOM) SetValue(ctx context.Context, q dom.Query, value string) error {
	d.Calls++
	if hook, ok := d.SetValueHooks[q.Name]; ok {
		return hook(value)
	}
	nodes := d.match(q)
	if len(nodes) == 0 {
		return fmt.Errorf("%s: %w", q, dom.ErrNotFound)
	}
	nodes[0].Val = value
	return nil
}

var _ dom.Adapter = (*DOM)(nil)
