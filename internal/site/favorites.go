package site

import (
	"context"
	"errors"
	"fmt"

	"talentAgent/internal/catalog"
	"talentAgent/internal/dom"
	"talentAgent/internal/runner"
	"talentAgent/internal/workflow"

	"go.uber.org/zap"
)

// Favorites добавление исполнителя в список избранного с заданным названием.
type Favorites struct {
	base
	list string

	// active карточка, для которой открыт выпадающий список.
	active dom.Element
}

func NewFavorites(a dom.Adapter, nav Navigator, cat *catalog.Catalog, cfg Config, list string, log *zap.Logger, opts ...Option) *Favorites {
	return &Favorites{base: newBase(a, nav, cat, cfg, log, opts), list: list}
}

// Open нажимает «сердце» на карточке и ждёт выпадающий список избранного.
// Если исполнитель уже в списке, повторный клик снял бы отметку, поэтому возвращается
// runner.ErrAlreadyDone.
func (s *Favorites) Open(ctx context.Context, it runner.Item) (workflow.Dialog, error) {
	s.prepare(ctx)

	card, err := s.card(ctx, it)
	if err != nil {
		return workflow.Dialog{}, err
	}
	s.active = card

	heart, err := dom.FirstVisible(ctx, s.dom, q(catalog.FavoriteButton).Within(card))
	if err != nil {
		return workflow.Dialog{}, fmt.Errorf("кнопка избранного: %w", err)
	}
	if err := s.click(ctx, heart); err != nil {
		return workflow.Dialog{}, fmt.Errorf("клик по кнопке избранного: %w", err)
	}
	s.sleep(ctx, s.cfg.StepDelay)

	dropdown, err := s.dom.WaitFor(ctx, q(catalog.FavoritesDropdown).Within(card), dom.StateVisible, s.cfg.MenuTimeout)
	if err != nil {
		return workflow.Dialog{}, fmt.Errorf("список избранного не появился: %w", err)
	}

	listQ := s.listQuery(ctx, dropdown)
	if _, err := dom.First(ctx, s.dom, listQ(catalog.FavoritesList).Within(dropdown)); errors.Is(err, dom.ErrNotFound) {
		return workflow.Dialog{}, fmt.Errorf("список %q не найден: %w", s.list, err)
	}
	if dom.AnyVisible(ctx, s.dom, listQ(catalog.FavoritesListOn).Within(dropdown)) {
		s.log.Info("Исполнитель уже в списке", zap.String("item", it.ID), zap.String("list", s.list))
		return workflow.Dialog{}, runner.ErrAlreadyDone
	}

	return workflow.Dialog{
		Modal:  q(catalog.FavoritesDropdown).Within(card),
		Submit: listQ(catalog.FavoritesList),
		Signals: workflow.Signals{
			Success: q(catalog.FavoriteSuccess),
		},
	}, nil
}

// listQuery выбирает способ сопоставления названия списка. Если есть кнопка с точно таким
// названием, подстрока не используется: иначе "Voice" совпал бы и с "Voice Actors".
func (s *Favorites) listQuery(ctx context.Context, dropdown dom.Element) func(name string) dom.Query {
	exact := q(catalog.FavoritesList).Within(dropdown).WithExactText(s.list)
	if _, err := dom.First(ctx, s.dom, exact); err == nil {
		return func(name string) dom.Query { return q(name).WithExactText(s.list) }
	}
	return func(name string) dom.Query { return q(name).WithText(s.list) }
}

// Dismiss закрывает выпадающий список избранного.
func (s *Favorites) Dismiss(ctx context.Context) {
	scope := q(catalog.FavoritesDropdown)
	if s.active != nil {
		scope = scope.Within(s.active)
	}
	s.closeOverlay(ctx, scope, q(catalog.FavoritesMenuClose))
	s.active = nil
}
