// Package workflow реализует сценарий «выбрать вариант в модальном окне, проверить,
// отправить и классифицировать результат» поверх dom.Adapter.
//
// Сценарий не пробрасывает ошибки адаптера: каждая неудача лишь продвигает лестницу
// запасных вариантов или превращается в Outcome. Ошибку возвращают только нарушение
// предусловия (модальное окно не видно) и некорректная цель.
package workflow

import (
	"context"
	"time"

	"talentAgent/internal/dom"

	"go.uber.org/zap"
)

// Control описание searchable single-select, привязанного к скрытому полю формы.
type Control struct {
	Value  dom.Query // скрытое поле со значением формы
	Label  dom.Query // подпись выбранного варианта
	Opener dom.Query // видимая «плашка», раскрывающая список
	List   dom.Query // раскрытый список вариантов
	Search dom.Query // поле поиска
	Option dom.Query // вариант списка
	// OptionKey атрибут варианта с каноническим значением.
	OptionKey string
}

func (c Control) IsZero() bool {
	return c.Value.IsZero() && c.Opener.IsZero()
}

// Signals терминальные сигналы после отправки.
type Signals struct {
	Success     dom.Query
	Error       dom.Query
	AlreadyDone dom.Query
}

// Dialog модальное окно с контролом выбора и кнопкой отправки.
// Пустой Control означает «отправить без выбора».
type Dialog struct {
	Modal   dom.Query
	Control Control
	Submit  dom.Query
	Signals Signals
}

type Config struct {
	OpenTimeout        time.Duration
	SignalTimeout      time.Duration
	SettleDelay        time.Duration
	FilterDelay        time.Duration
	SubmitPolls        int
	SubmitPollInterval time.Duration
}

// EventRecorder приёмник структурированных событий.
type EventRecorder interface {
	Record(eventType string, fields ...zap.Field)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, ...zap.Field) {}

type Workflow struct {
	dom    dom.Adapter
	log    *zap.Logger
	events EventRecorder
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration)
}

type Option func(*Workflow)

func WithEvents(r EventRecorder) Option {
	return func(w *Workflow) {
		if r != nil {
			w.events = r
		}
	}
}

// WithSleep подменяет паузы между действиями (в тестах паузы не нужны).
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(w *Workflow) {
		w.sleep = fn
	}
}

func New(a dom.Adapter, log *zap.Logger, cfg Config, opts ...Option) *Workflow {
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 2500 * time.Millisecond
	}
	if cfg.SignalTimeout == 0 {
		cfg.SignalTimeout = 8 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 150 * time.Millisecond
	}
	if cfg.FilterDelay == 0 {
		cfg.FilterDelay = 250 * time.Millisecond
	}
	if cfg.SubmitPolls == 0 {
		cfg.SubmitPolls = 10
	}
	if cfg.SubmitPollInterval == 0 {
		cfg.SubmitPollInterval = 300 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Workflow{
		dom:    a,
		log:    log,
		events: nopRecorder{},
		cfg:    cfg,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SelectAndConfirm доводит значение контрола до цели, нажимает основную кнопку окна
// и классифицирует результат.
func (w *Workflow) SelectAndConfirm(ctx context.Context, d Dialog, target Target) (Result, error) {
	withControl := !d.Control.IsZero()
	if withControl {
		if err := target.Validate(); err != nil {
			return Result{Outcome: Failed, Phase: PhaseEntry, Reason: err.Error()}, err
		}
	}

	modal, err := dom.FirstVisible(ctx, w.dom, d.Modal)
	if err != nil {
		perr := &Error{Kind: KindPreconditionViolation, Op: "select_and_confirm", Message: "модальное окно не видно", Err: err}
		w.events.Record("modal_missing", zap.String("modal", d.Modal.String()))
		return Result{Outcome: Failed, Phase: PhaseEntry, Reason: perr.Message}, perr
	}

	var res Result
	if withControl {
		sel := &selection{w: w, control: d.Control, target: target, scope: modal}
		step, state, ok := sel.run(ctx)
		res.Step = step
		res.State = state
		if !ok {
			w.log.Warn("Не удалось подтвердить выбор", zap.Stringer("target", target),
				zap.String("committed", state.Committed), zap.String("label", state.Label))
			w.events.Record("selection_failed", zap.Stringer("target", target),
				zap.String("committed", state.Committed), zap.String("label", state.Label))
			res.Outcome = Failed
			res.Phase = PhaseSelection
			res.Reason = "выбор не прошёл проверку"
			return res, nil
		}
		w.log.Info("Выбор подтверждён", zap.Stringer("target", target), zap.String("step", step))
	}

	w.sleep(ctx, w.cfg.SettleDelay)
	sub := w.submit(ctx, d, modal)
	sub.Step = res.Step
	sub.State = res.State
	return sub, nil
}
