// Package catalog хранит CSS селекторы сайта под логическими именами.
// Значения по умолчанию можно переопределить файлом YAML/JSON, не пересобирая программу.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// OptionKey атрибут варианта списка с каноническим значением.
const OptionKey = "data-value"

var defaultSelectors = map[string]string{
	TalentCard: "[data-testid='talent-card'], [data-qa='talent-card'], article:has(button:has-text('Invite'))",
	TalentLink: "a[href*='/talents/'], a[href*='/talent/'], a[href*='/profile/'], a[href*='/users/']",
	NextPage: "a[aria-label='Next']:not(.disabled):not([aria-disabled='true']), " +
		"a[rel='next'], .pagination a:has(i.fa-angle-right):not(.disabled), " +
		".pagination button:has(i.fa-angle-right):not(:disabled)",
	Cookie: ":is(button,a,[role='button']):has-text('Accept'), :is(button,a,[role='button']):has-text('I agree'), " +
		":is(button,a,[role='button']):has-text('Got it')",

	InviteButton: "button.headbtn.btn.btn-primary:has(i.fa-caret-down), :is(button, [role='button'], a):has-text('Invite to Job')",
	InviteMenu:   ".dropdown-content, .downmenu .dropdown-content",
	InviteExisting: "button.request_a_quote_btn:has-text('Invite to Existing Job'), " +
		"a.request_a_quote_btn:has-text('Invite to Existing Job'), [role='menuitem']:has-text('Invite to Existing Job')",
	InviteModal: ".modal.show, .modal.fade.show, [role='dialog'][aria-modal='true']",
	ModalClose:  "button.close, [data-dismiss='modal'], [aria-label='Close']",

	JobValue:  "#request-quote-open-jobs-list",
	JobLabel:  ".choices__list--single .choices__item",
	JobOpener: ".choices[data-type='select-one'] .choices__inner",
	JobList:   ".choices__list--dropdown.is-active, .choices.is-open .choices__list--dropdown",
	JobSearch: ".choices__input--cloned",
	JobOption: ".choices__list--dropdown .choices__item--choice",

	InviteSubmit: "#submit-request-quote",
	ToastSuccess: ".toast-success, .alert-success, .success-message",
	ToastError:   ".toast-error, .alert-danger, .error-message",
	ToastAlready: ":is(.toast, .alert, [role='status']):has-text('already received'), :is(.toast, .alert, [role='status']):has-text('already invited')",

	FavoriteButton:     "i.action-list-btn.fa-heart",
	FavoritesDropdown:  "div.action-list-dropdown",
	FavoritesList:      "button.action-list-checkbox-btn",
	FavoritesListOn:    "button.action-list-checkbox-btn.active",
	FavoriteSuccess:    ":is(.Toastify__toast, [role='status']):has-text('Saved'), :is(.Toastify__toast, [role='status']):has-text('Added to list')",
	FavoritesMenuClose: "button.close",
}

// DefaultIDAttributes атрибуты карточки, в которых сайт хранит идентификатор исполнителя.
var DefaultIDAttributes = []string{"data-talent-id", "data-profile-id", "data-id", "data-user-id"}

type Catalog struct {
	mu           sync.RWMutex
	selectors    map[string]string
	idAttributes []string
}

func Default() *Catalog {
	c := &Catalog{
		selectors:    make(map[string]string, len(defaultSelectors)),
		idAttributes: append([]string(nil), DefaultIDAttributes...),
	}
	for k, v := range defaultSelectors {
		c.selectors[k] = v
	}
	return c
}

// Load возвращает каталог по умолчанию, дополненный файлом path (если задан).
// Формат файла:
//
//	selectors:
//	  job_value: "#jobs"
//	id_attributes: ["data-talent-id"]
func Load(path string, log *zap.Logger) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("чтение каталога селекторов %s: %w", path, err)
	}

	for name, sel := range v.GetStringMapString("selectors") {
		if err := c.Set(name, sel); err != nil {
			return nil, err
		}
		log.Info("Селектор переопределён", zap.String("name", name), zap.String("selector", c.MustSelector(name)))
	}
	if attrs := v.GetStringSlice("id_attributes"); len(attrs) > 0 {
		c.idAttributes = attrs
	}
	return c, nil
}

// ErrUnknownName имя селектора не используется программой (чаще всего опечатка в файле).
var ErrUnknownName = errors.New("неизвестное имя селектора")

// Set заменяет селектор после нормализации и проверки. Новые имена не принимаются.
func (c *Catalog) Set(name, selector string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := defaultSelectors[name]; !ok {
		return fmt.Errorf("селектор %q: %w", name, ErrUnknownName)
	}
	selector = strings.TrimSpace(selector)
	if err := ValidateSelector(selector); err != nil {
		return fmt.Errorf("селектор %q: %w", name, err)
	}
	selector, _ = NormalizeSelector(selector)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectors[name] = selector
	return nil
}

func (c *Catalog) Selector(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.selectors[name]
	return s, ok
}

// MustSelector возвращает селектор или пустую строку для неизвестного имени.
func (c *Catalog) MustSelector(name string) string {
	s, _ := c.Selector(name)
	return s
}

func (c *Catalog) IDAttributes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.idAttributes...)
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.selectors))
	for k := range c.selectors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
