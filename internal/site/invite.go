package site

import (
	"context"
	"fmt"

	"talentAgent/internal/catalog"
	"talentAgent/internal/dom"
	"talentAgent/internal/runner"
	"talentAgent/internal/workflow"

	"go.uber.org/zap"
)

// Invite приглашение исполнителя на существующую вакансию.
type Invite struct {
	base
	// withoutSelection отправлять окно, не трогая список вакансий.
	withoutSelection bool
}

func NewInvite(a dom.Adapter, nav Navigator, cat *catalog.Catalog, cfg Config, withoutSelection bool, log *zap.Logger, opts ...Option) *Invite {
	return &Invite{
		base:             newBase(a, nav, cat, cfg, log, opts),
		withoutSelection: withoutSelection,
	}
}

// Dialog описание окна приглашения.
func (s *Invite) Dialog() workflow.Dialog {
	d := workflow.Dialog{
		Modal:  q(catalog.InviteModal),
		Submit: q(catalog.InviteSubmit),
		Signals: workflow.Signals{
			Success:     q(catalog.ToastSuccess),
			Error:       q(catalog.ToastError),
			AlreadyDone: q(catalog.ToastAlready),
		},
	}
	if !s.withoutSelection {
		d.Control = workflow.Control{
			Value:     q(catalog.JobValue),
			Label:     q(catalog.JobLabel),
			Opener:    q(catalog.JobOpener),
			List:      q(catalog.JobList),
			Search:    q(catalog.JobSearch),
			Option:    q(catalog.JobOption),
			OptionKey: catalog.OptionKey,
		}
	}
	return d
}

// Open нажимает «Invite» на карточке, выбирает «Invite to Existing Job» и ждёт окно.
// Если меню не появилось, кнопка могла открыть окно сразу (страница профиля).
func (s *Invite) Open(ctx context.Context, it runner.Item) (workflow.Dialog, error) {
	s.prepare(ctx)

	card, err := s.card(ctx, it)
	if err != nil {
		return workflow.Dialog{}, err
	}
	btn, err := dom.FirstVisible(ctx, s.dom, q(catalog.InviteButton).Within(card))
	if err != nil {
		return workflow.Dialog{}, fmt.Errorf("кнопка приглашения: %w", err)
	}
	if err := s.click(ctx, btn); err != nil {
		return workflow.Dialog{}, fmt.Errorf("клик по кнопке приглашения: %w", err)
	}
	s.sleep(ctx, s.cfg.StepDelay)

	if _, err := s.dom.WaitFor(ctx, q(catalog.InviteMenu), dom.StateVisible, s.cfg.MenuTimeout); err == nil {
		item, err := dom.FirstVisible(ctx, s.dom, q(catalog.InviteExisting))
		if err != nil {
			return workflow.Dialog{}, fmt.Errorf("пункт меню «Invite to Existing Job»: %w", err)
		}
		if err := s.click(ctx, item); err != nil {
			return workflow.Dialog{}, fmt.Errorf("клик по пункту меню: %w", err)
		}
	} else {
		s.log.Debug("Меню приглашения не появилось, ждём окно", zap.String("item", it.ID))
	}

	if _, err := s.dom.WaitFor(ctx, q(catalog.InviteModal), dom.StateVisible, s.cfg.ModalTimeout); err != nil {
		s.events.Record("modal_timeout", zap.String("item", it.ID))
		return workflow.Dialog{}, fmt.Errorf("окно приглашения не появилось: %w", err)
	}
	s.events.Record("modal_open", zap.String("item", it.ID))
	return s.Dialog(), nil
}

// Dismiss закрывает окно приглашения, если оно осталось открытым.
func (s *Invite) Dismiss(ctx context.Context) {
	s.closeOverlay(ctx, q(catalog.InviteModal), q(catalog.ModalClose))
}
