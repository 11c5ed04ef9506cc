package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"talentAgent/internal/dom"
	"talentAgent/internal/dom/domtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorded struct {
	types []string
}

func (r *recorded) Record(eventType string, _ ...zap.Field) {
	r.types = append(r.types, eventType)
}

func noSleep(context.Context, time.Duration) {}

func testDialog() Dialog {
	return Dialog{
		Modal: dom.Query{Name: domtest.Modal},
		Control: Control{
			Value:     dom.Query{Name: domtest.SelectValue},
			Label:     dom.Query{Name: domtest.SelectLabel},
			Opener:    dom.Query{Name: domtest.SelectOpener},
			List:      dom.Query{Name: domtest.SelectList},
			Search:    dom.Query{Name: domtest.SelectSearch},
			Option:    dom.Query{Name: domtest.SelectOption},
			OptionKey: domtest.OptionKey,
		},
		Submit: dom.Query{Name: domtest.Submit},
		Signals: Signals{
			Success:     dom.Query{Name: domtest.ToastSuccess},
			Error:       dom.Query{Name: domtest.ToastError},
			AlreadyDone: dom.Query{Name: domtest.ToastAlready},
		},
	}
}

func newWorkflow(d *domtest.DOM, events EventRecorder) *Workflow {
	return New(d, zap.NewNop(), Config{}, WithSleep(noSleep), WithEvents(events))
}

func TestLadderOrder(t *testing.T) {
	var names []string
	for _, st := range ladder {
		names = append(names, st.name)
	}
	assert.Equal(t, []string{
		"set_value", "keyboard_search", "option_by_key", "option_by_text", "filter_click", "set_value_last_resort",
	}, names)

	// Шаг вызывается как метод выборки: без идентификатора прямая установка неприменима.
	sel := &selection{w: newWorkflow(domtest.New(), nil), target: Target{TextFragment: "Alpha"}}
	assert.ErrorIs(t, ladder[0].run(sel, context.Background()), errNotApplicable)
}

func TestSelectAndConfirm_DirectValueSetSucceeds(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(),
		domtest.Option{Value: "818318", Label: "Job #818318 - Voice Over"},
		domtest.Option{Value: "900001", Label: "Job #900001 - Narration"},
	)
	s.OnSubmit = domtest.ShowSuccess

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, PhaseSubmit, res.Phase)
	assert.Equal(t, "set_value", res.Step)
	assert.False(t, res.Implicit)
	assert.Equal(t, "818318", res.State.Committed)
	assert.Equal(t, 1, s.SetValueCalls())
	assert.Equal(t, 1, s.Submits())
}

func TestSelectAndConfirm_AlreadyDoneSignal(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.OnSubmit = domtest.ShowAlready

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)
	assert.Equal(t, AlreadyDone, res.Outcome)
}

func TestSelectAndConfirm_VisualOnlySelectionIsRejected(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Behaviour{AcceptClick: true, OpenOnClick: true, VisualOnly: true},
		domtest.Option{Value: "818318", Label: "Job #818318 - Voice Over"},
	)
	s.OnSubmit = domtest.ShowSuccess

	ev := &recorded{}
	res, err := newWorkflow(d, ev).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, PhaseSelection, res.Phase)
	assert.Empty(t, res.State.Committed)
	// Подпись сменилась, но форма отправила бы пустое значение.
	assert.Equal(t, "Job #818318 - Voice Over", s.Label.Label)
	assert.Contains(t, d.Clicks, domtest.SelectOption)
	assert.Zero(t, s.Submits())
	assert.Contains(t, ev.types, "selection_failed")
	assert.NotContains(t, ev.types, "selection_verified")
}

func TestSelectAndConfirm_IdentifierBeatsTextFragment(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Behaviour{AcceptClick: true, OpenOnClick: true},
		domtest.Option{Value: "200", Label: "Job #200 - Alpha Variant"},
	)
	s.OnSubmit = domtest.ShowSuccess

	dlg := testDialog()
	dlg.Control.Search = dom.Query{}

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), dlg, Target{Identifier: "100", TextFragment: "Alpha"})
	require.NoError(t, err)

	// Вариант 200 выбран кликом по тексту, но проверка идентификатора его отвергла.
	assert.Equal(t, "200", s.Value.Val)
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, PhaseSelection, res.Phase)
	assert.Zero(t, s.Submits())
}

func TestSelectAndConfirm_FallsBackToOptionClick(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Behaviour{AcceptClick: true, OpenOnClick: true},
		domtest.Option{Value: "100", Label: "Job #100 - Alpha"},
		domtest.Option{Value: "200", Label: "Job #200 - Alpha Variant"},
	)
	s.OnSubmit = domtest.ShowSuccess

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "200", TextFragment: "Alpha"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, "option_by_key", res.Step)
	assert.Equal(t, "200", res.State.Committed)
}

func TestSelectAndConfirm_KeyboardSearchByText(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Behaviour{AcceptKeyboard: true, OpenOnClick: true},
		domtest.Option{Value: "100", Label: "Job #100 - Alpha"},
		domtest.Option{Value: "300", Label: "Favorites: Voice Actors"},
	)
	s.OnSubmit = domtest.ShowSuccess

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{TextFragment: "voice actors"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, "keyboard_search", res.Step)
	assert.Equal(t, "300", res.State.Committed)
	assert.Zero(t, s.SetValueCalls())
}

func TestSelectAndConfirm_ErrorSignalIsFailed(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.OnSubmit = domtest.ShowError

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, PhaseSubmit, res.Phase)
	assert.Equal(t, "Something went wrong", res.Reason)
}

func TestSelectAndConfirm_ErrorToastMentioningAlready(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.Error.Label = "This talent was Already invited to the job"
	s.OnSubmit = domtest.ShowError

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)
	assert.Equal(t, AlreadyDone, res.Outcome)
}

func TestSelectAndConfirm_NoSignalModalVisibleIsUnknown(t *testing.T) {
	d := domtest.New()
	domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Unknown, res.Outcome)
	assert.NotEqual(t, Failed, res.Outcome)
	assert.False(t, res.Implicit)
}

func TestSelectAndConfirm_NoSignalModalClosedIsImplicitSuccess(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.OnSubmit = domtest.CloseModal

	ev := &recorded{}
	res, err := newWorkflow(d, ev).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Succeeded, res.Outcome)
	assert.True(t, res.Implicit)
	assert.Contains(t, ev.types, "submit_implicit_close")
}

// flakyAfterSubmit теряет соединение со страницей сразу после клика по кнопке отправки.
type flakyAfterSubmit struct {
	*domtest.DOM
	broken bool
}

func (f *flakyAfterSubmit) FindAll(ctx context.Context, q dom.Query) ([]dom.Element, error) {
	if f.broken {
		return nil, errors.New("cdp: target closed")
	}
	return f.DOM.FindAll(ctx, q)
}

func TestSelectAndConfirm_AdapterFailureAfterSubmitIsUnknown(t *testing.T) {
	d := domtest.New()
	a := &flakyAfterSubmit{DOM: d}
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.OnSubmit = func(*domtest.Select) { a.broken = true }

	ev := &recorded{}
	w := New(a, zap.NewNop(), Config{}, WithSleep(noSleep), WithEvents(ev))
	res, err := w.SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Unknown, res.Outcome)
	assert.False(t, res.Implicit)
	assert.Equal(t, 1, s.Submits())
	assert.NotContains(t, ev.types, "submit_implicit_close")
}

func TestSelectAndConfirm_CancelAfterSubmitIsNotImplicitSuccess(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.OnSubmit = func(s *domtest.Select) {
		domtest.CloseModal(s)
		cancel()
	}

	res, err := newWorkflow(d, nil).SelectAndConfirm(ctx, testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Unknown, res.Outcome)
	assert.False(t, res.Implicit)
}

func TestSelectAndConfirm_ModalNotVisible(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.Modal.Hidden = true

	_, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPreconditionViolation))
	assert.Zero(t, s.SetValueCalls())
	assert.Zero(t, s.Submits())
}

func TestSelectAndConfirm_EmptyTargetFailsBeforeAdapter(t *testing.T) {
	d := domtest.New()
	domtest.NewSelect(d, domtest.Cooperative())

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
	assert.Equal(t, Failed, res.Outcome)
	assert.Zero(t, d.Calls)
}

func TestSelectAndConfirm_SubmitNeverEnabled(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318"})
	s.Submit.Disabled = true
	s.OnSubmit = domtest.ShowSuccess

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, PhaseSubmit, res.Phase)
	assert.Zero(t, s.Submits())
}

func TestSelectAndConfirm_WithoutControlSubmitsDirectly(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Cooperative())
	s.OnSubmit = domtest.ShowSuccess

	dlg := testDialog()
	dlg.Control = Control{}

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), dlg, Target{})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Empty(t, res.Step)
	assert.Zero(t, s.SetValueCalls())
}

func TestSelectAndConfirm_AdapterErrorsDoNotEscape(t *testing.T) {
	d := domtest.New()
	s := domtest.NewSelect(d, domtest.Behaviour{AcceptClick: true, OpenOnClick: true},
		domtest.Option{Value: "818318", Label: "Job #818318"},
	)
	d.ClickErrors[domtest.SelectOpener] = dom.ErrClickFailed
	s.OnSubmit = domtest.ShowSuccess

	res, err := newWorkflow(d, nil).SelectAndConfirm(context.Background(), testDialog(), Target{Identifier: "818318"})
	require.NoError(t, err)
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, PhaseSelection, res.Phase)
}
