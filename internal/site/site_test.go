package site

import (
	"context"
	"testing"
	"time"

	"talentAgent/internal/catalog"
	"talentAgent/internal/dom/domtest"
	"talentAgent/internal/runner"
	"talentAgent/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNav struct {
	loads int
}

func (n *fakeNav) WaitForLoad(context.Context) error {
	n.loads++
	return nil
}

func (n *fakeNav) URL() string { return "https://example.com/talents?page=2" }

func noSleep(context.Context, time.Duration) {}

// addCard добавляет карточку с кнопкой приглашения, ссылкой на профиль и «сердцем».
func addCard(d *domtest.DOM, attrs map[string]string, href string) *domtest.Node {
	card := d.Add(&domtest.Node{Name: catalog.TalentCard, Attrs: attrs})
	if href != "" {
		d.Add(&domtest.Node{Name: catalog.TalentLink, Parent: card, Attrs: map[string]string{"href": href}})
	}
	return card
}

// invitePage собирает страницу, на которой «Invite» → меню → «Invite to Existing Job» открывает окно.
func invitePage(t *testing.T, d *domtest.DOM) (*domtest.Node, *domtest.Select) {
	t.Helper()
	card := addCard(d, map[string]string{"data-talent-id": "t-1"}, "/talents/t-1")

	sel := domtest.NewSelect(d, domtest.Cooperative(), domtest.Option{Value: "818318", Label: "Job #818318 - Voice"})
	sel.Modal.Hidden = true
	sel.OnSubmit = func(s *domtest.Select) {
		domtest.ShowSuccess(s)
		domtest.CloseModal(s)
	}

	menu := d.Add(&domtest.Node{Name: catalog.InviteMenu, Hidden: true})
	d.Add(&domtest.Node{Name: catalog.InviteExisting, Parent: menu, OnClick: func(*domtest.Node) error {
		menu.Hidden = true
		sel.Modal.Hidden = false
		return nil
	}})
	d.Add(&domtest.Node{Name: catalog.InviteButton, Parent: card, OnClick: func(*domtest.Node) error {
		menu.Hidden = false
		return nil
	}})
	return card, sel
}

func TestItemsExtractIdentifiers(t *testing.T) {
	d := domtest.New()
	addCard(d, map[string]string{"data-talent-id": "111"}, "/talents/ignored")
	addCard(d, nil, "https://example.com/talent/jane-doe-42?ref=search")
	addCard(d, map[string]string{"data-id": "333"}, "").Hidden = true
	addCard(d, nil, "")

	s := NewInvite(d, nil, nil, Config{}, false, zap.NewNop())
	items, err := s.Items(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "111", items[0].ID)
	assert.Equal(t, "/talents/ignored", items[0].URL)
	assert.Equal(t, "jane-doe-42", items[1].ID)
	assert.Empty(t, items[2].ID)
	assert.Equal(t, 3, items[2].Index)
}

func TestInviteOpenAndConfirm(t *testing.T) {
	d := domtest.New()
	invitePage(t, d)

	s := NewInvite(d, nil, nil, Config{}, false, zap.NewNop(), WithSleep(noSleep))
	items, err := s.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	dlg, err := s.Open(context.Background(), items[0])
	require.NoError(t, err)
	assert.False(t, dlg.Control.IsZero())

	wf := workflow.New(d, zap.NewNop(), workflow.Config{}, workflow.WithSleep(noSleep))
	res, err := wf.SelectAndConfirm(context.Background(), dlg, workflow.Target{Identifier: "818318"})
	require.NoError(t, err)
	assert.Equal(t, workflow.Succeeded, res.Outcome)
	assert.False(t, res.Implicit)
}

func TestInviteOpenModalNeverAppears(t *testing.T) {
	d := domtest.New()
	card := addCard(d, map[string]string{"data-talent-id": "t-1"}, "")
	d.Add(&domtest.Node{Name: catalog.InviteButton, Parent: card})

	s := NewInvite(d, nil, nil, Config{}, false, zap.NewNop(), WithSleep(noSleep))
	_, err := s.Open(context.Background(), runner.Item{ID: "t-1"})
	assert.Error(t, err)
}

func TestInviteOpenCardGone(t *testing.T) {
	d := domtest.New()
	addCard(d, map[string]string{"data-talent-id": "t-1"}, "")

	s := NewInvite(d, nil, nil, Config{}, false, zap.NewNop(), WithSleep(noSleep))
	_, err := s.Open(context.Background(), runner.Item{ID: "t-9", Index: 0})
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestInviteWithoutSelection(t *testing.T) {
	s := NewInvite(domtest.New(), nil, nil, Config{}, true, nil)
	assert.True(t, s.Dialog().Control.IsZero())
}

func TestInviteAcceptsCookiesFirst(t *testing.T) {
	d := domtest.New()
	invitePage(t, d)
	cookie := d.Add(&domtest.Node{Name: catalog.Cookie})
	cookie.OnClick = func(n *domtest.Node) error {
		n.Hidden = true
		return nil
	}

	s := NewInvite(d, nil, nil, Config{}, false, nil, WithSleep(noSleep))
	_, err := s.Open(context.Background(), runner.Item{ID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, catalog.Cookie, d.Clicks[0])
}

func TestDismissFallsBackToEscape(t *testing.T) {
	d := domtest.New()
	s := NewInvite(d, nil, nil, Config{}, false, nil)
	s.Dismiss(context.Background())
	assert.Equal(t, []string{"Escape"}, d.PageKeys)
}

func TestDismissUsesCloseButton(t *testing.T) {
	d := domtest.New()
	modal := d.Add(&domtest.Node{Name: catalog.InviteModal})
	d.Add(&domtest.Node{Name: catalog.ModalClose, Parent: modal, OnClick: func(*domtest.Node) error {
		modal.Hidden = true
		return nil
	}})

	s := NewInvite(d, nil, nil, Config{}, false, nil)
	s.Dismiss(context.Background())
	assert.True(t, modal.Hidden)
	assert.Empty(t, d.PageKeys)
}

func TestNextPage(t *testing.T) {
	d := domtest.New()
	nav := &fakeNav{}
	s := NewInvite(d, nav, nil, Config{}, false, nil)

	more, err := s.NextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, more, "ссылки нет")

	link := d.Add(&domtest.Node{Name: catalog.NextPage, Attrs: map[string]string{"aria-disabled": "true"}})
	more, err = s.NextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, more, "ссылка выключена")

	link.Attrs["aria-disabled"] = "false"
	more, err = s.NextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1, nav.loads)
	assert.Contains(t, d.Clicks, catalog.NextPage)
}

// favoritesCard карточка с «сердцем», выпадающим списком и кнопкой списка.
func favoritesCard(d *domtest.DOM, active bool) (*domtest.Node, *domtest.Node) {
	card := addCard(d, map[string]string{"data-talent-id": "f-1"}, "")
	dropdown := d.Add(&domtest.Node{Name: catalog.FavoritesDropdown, Parent: card, Hidden: true})
	d.Add(&domtest.Node{Name: catalog.FavoriteButton, Parent: card, OnClick: func(*domtest.Node) error {
		dropdown.Hidden = false
		return nil
	}})
	toast := d.Add(&domtest.Node{Name: catalog.FavoriteSuccess, Hidden: true})

	name := catalog.FavoritesList
	if active {
		name = catalog.FavoritesListOn
	}
	d.Add(&domtest.Node{Name: name, Parent: dropdown, Label: "Voice Actors", OnClick: func(*domtest.Node) error {
		toast.Hidden = false
		return nil
	}})
	if active {
		// Активная кнопка видна под обоими селекторами.
		d.Add(&domtest.Node{Name: catalog.FavoritesList, Parent: dropdown, Label: "Voice Actors"})
	}
	return card, dropdown
}

func TestFavoritesAddToList(t *testing.T) {
	d := domtest.New()
	favoritesCard(d, false)

	s := NewFavorites(d, nil, nil, Config{}, "voice actors", zap.NewNop(), WithSleep(noSleep))
	dlg, err := s.Open(context.Background(), runner.Item{ID: "f-1"})
	require.NoError(t, err)
	assert.True(t, dlg.Control.IsZero())

	wf := workflow.New(d, zap.NewNop(), workflow.Config{}, workflow.WithSleep(noSleep))
	res, err := wf.SelectAndConfirm(context.Background(), dlg, workflow.Target{TextFragment: "voice actors"})
	require.NoError(t, err)
	assert.Equal(t, workflow.Succeeded, res.Outcome)
}

func TestFavoritesAlreadyInList(t *testing.T) {
	d := domtest.New()
	favoritesCard(d, true)

	s := NewFavorites(d, nil, nil, Config{}, "Voice Actors", zap.NewNop(), WithSleep(noSleep))
	_, err := s.Open(context.Background(), runner.Item{ID: "f-1"})
	assert.ErrorIs(t, err, runner.ErrAlreadyDone)
}

func TestFavoritesPrefersExactListTitle(t *testing.T) {
	d := domtest.New()
	_, dropdown := favoritesCard(d, false)
	toast := d.Nodes(catalog.FavoriteSuccess)[0]
	var clicked []string
	d.Add(&domtest.Node{Name: catalog.FavoritesList, Parent: dropdown, Label: "Voice", OnClick: func(*domtest.Node) error {
		clicked = append(clicked, "Voice")
		toast.Hidden = false
		return nil
	}})

	s := NewFavorites(d, nil, nil, Config{}, "voice", zap.NewNop(), WithSleep(noSleep))
	dlg, err := s.Open(context.Background(), runner.Item{ID: "f-1"})
	require.NoError(t, err)
	assert.True(t, dlg.Submit.Exact)

	wf := workflow.New(d, zap.NewNop(), workflow.Config{}, workflow.WithSleep(noSleep))
	res, err := wf.SelectAndConfirm(context.Background(), dlg, workflow.Target{TextFragment: "voice"})
	require.NoError(t, err)
	assert.Equal(t, workflow.Succeeded, res.Outcome)
	assert.Equal(t, []string{"Voice"}, clicked)
}

func TestFavoritesUnknownList(t *testing.T) {
	d := domtest.New()
	favoritesCard(d, false)

	s := NewFavorites(d, nil, nil, Config{}, "Narrators", zap.NewNop(), WithSleep(noSleep))
	_, err := s.Open(context.Background(), runner.Item{ID: "f-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, runner.ErrAlreadyDone)
}
