package workflow

import (
	"context"
	"strings"

	"talentAgent/internal/dom"

	"go.uber.org/zap"
)

const (
	signalSuccess = iota
	signalError
	signalAlready
)

// waitSubmit ждёт, пока кнопка отправки станет видимой и доступной.
// Часть интерфейсов блокирует её до выбора корректного значения.
func (w *Workflow) waitSubmit(ctx context.Context, q dom.Query) (dom.Element, error) {
	var lastErr error
	for i := 0; i < w.cfg.SubmitPolls; i++ {
		if i > 0 {
			w.sleep(ctx, w.cfg.SubmitPollInterval)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		el, err := dom.FirstVisible(ctx, w.dom, q)
		if err != nil {
			lastErr = err
			continue
		}
		enabled, err := w.dom.IsEnabled(ctx, el)
		if err != nil {
			lastErr = err
			continue
		}
		if enabled {
			return el, nil
		}
		lastErr = dom.ErrTimeout
	}
	return nil, lastErr
}

func (w *Workflow) submit(ctx context.Context, d Dialog, modal dom.Element) Result {
	btn, err := w.waitSubmit(ctx, d.Submit.Within(modal))
	if err != nil {
		serr := classify("submit_wait", err)
		w.log.Warn("Кнопка отправки недоступна", zap.Error(serr))
		w.events.Record("submit_unavailable", zap.String("error", serr.Error()))
		return Result{Outcome: Failed, Phase: PhaseSubmit, Reason: serr.Error()}
	}

	// Окно верхнее, поэтому клик через перекрытие допустим.
	if err := w.dom.Click(ctx, btn, dom.ClickOptions{Force: true}); err != nil {
		serr := classify("submit_click", err)
		w.log.Warn("Не удалось нажать кнопку отправки", zap.Error(serr))
		w.events.Record("submit_click_failed", zap.String("error", serr.Error()))
		return Result{Outcome: Failed, Phase: PhaseSubmit, Reason: serr.Error()}
	}
	w.events.Record("submit_clicked")

	signals := []dom.Query{d.Signals.Success, d.Signals.Error, d.Signals.AlreadyDone}
	idx, el, err := w.dom.WaitForAny(ctx, signals, w.cfg.SignalTimeout)
	if err != nil {
		return w.classifySilence(ctx, d)
	}

	switch idx {
	case signalSuccess:
		w.events.Record("submit_result", zap.String("signal", "success"))
		return Result{Outcome: Succeeded, Phase: PhaseSubmit}
	case signalAlready:
		w.events.Record("submit_result", zap.String("signal", "already"))
		return Result{Outcome: AlreadyDone, Phase: PhaseSubmit}
	}

	text, _ := w.dom.Text(ctx, el)
	text = strings.TrimSpace(text)
	if containsFold(text, "already") {
		w.events.Record("submit_result", zap.String("signal", "error_already"), zap.String("text", text))
		return Result{Outcome: AlreadyDone, Phase: PhaseSubmit, Reason: text}
	}
	w.log.Warn("Сайт вернул ошибку", zap.String("text", text))
	w.events.Record("submit_result", zap.String("signal", "error"), zap.String("text", text))
	return Result{Outcome: Failed, Phase: PhaseSubmit, Reason: text}
}

// classifySilence разбирает случай, когда ни один сигнал не появился.
// Закрывшееся окно считается успехом. Эвристика может ошибаться: окно закрывается
// и по посторонним причинам (например, истекла сессия), поэтому итог помечается Implicit.
// Успех засчитывается только если страницу удалось прочитать; сбой адаптера даёт Unknown.
func (w *Workflow) classifySilence(ctx context.Context, d Dialog) Result {
	visible, err := dom.Visible(ctx, w.dom, d.Modal)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		serr := classify("submit_observe", err)
		w.log.Warn("Не удалось проверить окно после отправки", zap.Error(serr))
		w.events.Record("submit_result", zap.String("signal", "none"), zap.String("error", serr.Error()))
		return Result{Outcome: Unknown, Phase: PhaseSubmit, Reason: serr.Error()}
	}
	if !visible {
		w.log.Info("Сигнала нет, но окно закрылось: считаем успехом")
		w.events.Record("submit_implicit_close")
		return Result{Outcome: Succeeded, Phase: PhaseSubmit, Implicit: true, Reason: "окно закрылось без сигнала"}
	}
	w.log.Warn("Результат отправки не определён")
	w.events.Record("submit_result", zap.String("signal", "none"))
	return Result{Outcome: Unknown, Phase: PhaseSubmit, Reason: "нет сигнала в пределах таймаута"}
}
