package domtest

import (
	"strings"

	"talentAgent/internal/catalog"
)

// Имена узлов совпадают с ключами каталога, поэтому фейк подходит и для сценариев сайта.
const (
	Modal        = catalog.InviteModal
	SelectValue  = catalog.JobValue
	SelectLabel  = catalog.JobLabel
	SelectOpener = catalog.JobOpener
	SelectList   = catalog.JobList
	SelectSearch = catalog.JobSearch
	SelectOption = catalog.JobOption
	Submit       = catalog.InviteSubmit
	ToastSuccess = catalog.ToastSuccess
	ToastError   = catalog.ToastError
	ToastAlready = catalog.ToastAlready
	OptionKey    = catalog.OptionKey
)

// Behaviour управляет тем, какие способы выбора реально меняют состояние виджета.
type Behaviour struct {
	AcceptSetValue bool
	AcceptClick    bool
	AcceptKeyboard bool
	OpenOnClick    bool
	// VisualOnly клик меняет только подпись, но не значение формы.
	VisualOnly bool
}

// Cooperative виджет, который принимает любой способ выбора.
func Cooperative() Behaviour {
	return Behaviour{AcceptSetValue: true, AcceptClick: true, AcceptKeyboard: true, OpenOnClick: true}
}

type Option struct {
	Value string
	Label string
}

// Select фейковый searchable single-select внутри модального окна.
type Select struct {
	DOM       *DOM
	Behaviour Behaviour

	Modal   *Node
	Value   *Node
	Label   *Node
	Opener  *Node
	List    *Node
	Search  *Node
	Submit  *Node
	Options []*Node

	Success *Node
	Error   *Node
	Already *Node

	// OnSubmit вызывается при клике по кнопке отправки.
	OnSubmit func(s *Select)

	setValueCalls int
	submits       int
}

// NewSelect собирает видимое модальное окно с закрытым списком вариантов.
func NewSelect(d *DOM, b Behaviour, options ...Option) *Select {
	s := &Select{DOM: d, Behaviour: b}
	s.Modal = d.Add(&Node{Name: Modal})
	s.Value = d.Add(&Node{Name: SelectValue, Parent: s.Modal, Hidden: true})
	s.Label = d.Add(&Node{Name: SelectLabel, Parent: s.Modal})
	s.Opener = d.Add(&Node{Name: SelectOpener, Parent: s.Modal, OnClick: s.open})
	s.Search = d.Add(&Node{Name: SelectSearch, Parent: s.Modal, OnType: s.filter, OnPress: s.press})
	s.List = d.Add(&Node{Name: SelectList, Parent: s.Modal, Hidden: true})
	for _, o := range options {
		n := d.Add(&Node{
			Name:    SelectOption,
			Parent:  s.List,
			Label:   o.Label,
			Attrs:   map[string]string{OptionKey: o.Value},
			OnClick: s.pick,
		})
		s.Options = append(s.Options, n)
	}
	s.Submit = d.Add(&Node{Name: Submit, Parent: s.Modal, OnClick: s.submit})

	s.Success = d.Add(&Node{Name: ToastSuccess, Hidden: true, Label: "Invitation sent"})
	s.Error = d.Add(&Node{Name: ToastError, Hidden: true, Label: "Something went wrong"})
	s.Already = d.Add(&Node{Name: ToastAlready, Hidden: true, Label: "Talent already invited"})

	d.SetValueHooks[SelectValue] = s.setValue
	return s
}

// SetValueCalls количество прямых установок значения.
func (s *Select) SetValueCalls() int { return s.setValueCalls }

// Submits количество кликов по кнопке отправки.
func (s *Select) Submits() int { return s.submits }

func (s *Select) open(*Node) error {
	if s.Behaviour.OpenOnClick {
		s.List.Hidden = false
	}
	return nil
}

func (s *Select) commit(opt *Node) {
	s.Label.Label = opt.Label
	if !s.Behaviour.VisualOnly {
		s.Value.Val = opt.Attrs[OptionKey]
	}
	s.List.Hidden = true
	for _, o := range s.Options {
		o.Hidden = false
	}
}

func (s *Select) pick(n *Node) error {
	if s.Behaviour.AcceptClick {
		s.commit(n)
	}
	return nil
}

func (s *Select) filter(_ *Node, text string) {
	needle := strings.ToLower(text)
	for _, o := range s.Options {
		o.Hidden = needle != "" && !strings.Contains(strings.ToLower(o.Label), needle)
	}
}

func (s *Select) press(_ *Node, key string) {
	if key != "Enter" || !s.Behaviour.AcceptKeyboard || s.List.Hidden {
		return
	}
	for _, o := range s.Options {
		if !o.Hidden {
			s.commit(o)
			return
		}
	}
}

func (s *Select) setValue(value string) error {
	s.setValueCalls++
	if !s.Behaviour.AcceptSetValue {
		return nil
	}
	for _, o := range s.Options {
		if o.Attrs[OptionKey] == value {
			s.Value.Val = value
			s.Label.Label = o.Label
			return nil
		}
	}
	return nil
}

func (s *Select) submit(*Node) error {
	s.submits++
	if s.OnSubmit != nil {
		s.OnSubmit(s)
	}
	return nil
}

// ShowSuccess, ShowError, ShowAlready и CloseModal готовые реакции на отправку.
func ShowSuccess(s *Select) { s.Success.Hidden = false }
func ShowError(s *Select)   { s.Error.Hidden = false }
func ShowAlready(s *Select) { s.Already.Hidden = false }
func CloseModal(s *Select)  { s.Modal.Hidden = true }
