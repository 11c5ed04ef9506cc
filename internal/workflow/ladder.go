package workflow

import (
	"context"
	"errors"
	"strings"

	"talentAgent/internal/dom"

	"go.uber.org/zap"
)

// errNotApplicable стратегия не применима к цели (например, нет идентификатора).
var errNotApplicable = errors.New("стратегия неприменима")

type strategy struct {
	name string
	run  func(s *selection, ctx context.Context) error
}

// ladder упорядоченный список способов выбора: от прямой установки значения
// через клавиатуру и клики до повторной установки значения в самом конце.
var ladder = []strategy{
	{name: "set_value", run: (*selection).setValue},
	{name: "keyboard_search", run: (*selection).keyboardSearch},
	{name: "option_by_key", run: (*selection).optionByKey},
	{name: "option_by_text", run: (*selection).optionByText},
	{name: "filter_click", run: (*selection).filterClick},
	{name: "set_value_last_resort", run: (*selection).setValue},
}

type selection struct {
	w       *Workflow
	control Control
	target  Target
	scope   dom.Element
}

func (s *selection) q(q dom.Query) dom.Query {
	return q.Within(s.scope)
}

// run проходит лестницу и после каждого шага перепроверяет состояние.
func (s *selection) run(ctx context.Context) (string, ControlState, bool) {
	state := s.readState(ctx)
	s.w.events.Record("choices_state_before",
		zap.String("committed", state.Committed),
		zap.String("label", state.Label),
		zap.String("target_id", s.target.Identifier),
		zap.String("target_text", s.target.TextFragment))

	for _, st := range ladder {
		if ctx.Err() != nil {
			return "", state, false
		}

		err := st.run(s, ctx)
		if errors.Is(err, errNotApplicable) {
			continue
		}

		s.w.sleep(ctx, s.w.cfg.SettleDelay)
		state = s.readState(ctx)

		// Проверяем и после ошибки: шаг мог сработать частично.
		if state.Satisfies(s.target) {
			s.w.events.Record("selection_verified", zap.String("step", st.name),
				zap.String("committed", state.Committed), zap.String("label", state.Label))
			return st.name, state, true
		}

		var serr *Error
		if err != nil {
			serr = classify(st.name, err)
		} else {
			serr = mismatch(st.name, state)
		}
		s.w.log.Debug("Шаг выбора не подтвердился", zap.String("step", st.name),
			zap.String("kind", serr.Kind.String()), zap.Error(serr))
		s.w.events.Record("selection_attempt", zap.String("step", st.name),
			zap.String("kind", serr.Kind.String()), zap.String("error", serr.Error()),
			zap.String("committed", state.Committed), zap.String("label", state.Label))
	}

	return "", state, false
}

// readState читает значение формы, подпись и видимость списка. Ошибки чтения дают пустые поля.
func (s *selection) readState(ctx context.Context) ControlState {
	var st ControlState
	c := s.control
	a := s.w.dom

	if !c.Value.IsZero() {
		if el, err := dom.First(ctx, a, s.q(c.Value)); err == nil {
			if v, err := a.Value(ctx, el); err == nil {
				st.Committed = strings.TrimSpace(v)
			}
		}
	}
	if !c.Label.IsZero() {
		if el, err := dom.First(ctx, a, s.q(c.Label)); err == nil {
			if v, err := a.Text(ctx, el); err == nil {
				st.Label = strings.TrimSpace(v)
			}
		}
	}
	if !c.List.IsZero() {
		st.Open = dom.AnyVisible(ctx, a, s.q(c.List))
	}
	return st
}

func (s *selection) setValue(ctx context.Context) error {
	if s.target.Identifier == "" || s.control.Value.IsZero() {
		return errNotApplicable
	}
	return s.w.dom.SetValue(ctx, s.q(s.control.Value), s.target.Identifier)
}

// open раскрывает список. Если флаг открытия так и не появился, шаг продолжается:
// некоторые темы рисуют варианты, не переключая видимость контейнера.
func (s *selection) open(ctx context.Context) error {
	a := s.w.dom
	c := s.control
	if !c.List.IsZero() && dom.AnyVisible(ctx, a, s.q(c.List)) {
		return nil
	}

	opener, err := dom.FirstVisible(ctx, a, s.q(c.Opener))
	if err != nil {
		return err
	}
	if err := a.Click(ctx, opener, dom.ClickOptions{}); err != nil {
		if perr := a.Press(ctx, opener, "Enter"); perr != nil {
			return err
		}
	}

	if c.List.IsZero() {
		return nil
	}
	if _, err := a.WaitFor(ctx, s.q(c.List), dom.StateVisible, s.w.cfg.OpenTimeout); err != nil {
		s.w.log.Debug("Список не раскрылся, продолжаем", zap.Error(err))
		s.w.events.Record("choices_open_timeout", zap.String("list", c.List.String()))
	}
	return nil
}

func (s *selection) typeSearch(ctx context.Context, term string) (dom.Element, error) {
	if s.control.Search.IsZero() {
		return nil, errNotApplicable
	}
	input, err := dom.FirstVisible(ctx, s.w.dom, s.q(s.control.Search))
	if err != nil {
		return nil, err
	}
	if err := s.w.dom.Type(ctx, input, term); err != nil {
		return nil, err
	}
	s.w.sleep(ctx, s.w.cfg.FilterDelay)
	return input, nil
}

func (s *selection) keyboardSearch(ctx context.Context) error {
	term := s.target.searchTerm()
	if term == "" {
		return errNotApplicable
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	input, err := s.typeSearch(ctx, term)
	if err != nil {
		return err
	}
	return s.w.dom.Press(ctx, input, "Enter")
}

func (s *selection) clickOption(ctx context.Context, q dom.Query) error {
	opt, err := dom.FirstVisible(ctx, s.w.dom, s.q(q))
	if err != nil {
		return err
	}
	if err := s.w.dom.Click(ctx, opt, dom.ClickOptions{}); err != nil {
		return s.w.dom.Click(ctx, opt, dom.ClickOptions{Force: true})
	}
	return nil
}

func (s *selection) optionByKey(ctx context.Context) error {
	if s.target.Identifier == "" || s.control.OptionKey == "" {
		return errNotApplicable
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.clickOption(ctx, s.control.Option.WithAttr(s.control.OptionKey, s.target.Identifier))
}

func (s *selection) optionByText(ctx context.Context) error {
	if s.target.TextFragment == "" {
		return errNotApplicable
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.clickOption(ctx, s.control.Option.WithText(s.target.TextFragment))
}

func (s *selection) filterClick(ctx context.Context) error {
	term := s.target.searchTerm()
	if term == "" || s.control.Search.IsZero() {
		return errNotApplicable
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	if _, err := s.typeSearch(ctx, term); err != nil {
		return err
	}
	if err := s.clickOption(ctx, s.control.Option.WithText(term)); err == nil {
		return nil
	}
	return s.clickOption(ctx, s.control.Option)
}
