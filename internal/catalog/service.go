package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/kopikita/backend-kopi/internal/promo"
)

// ErrNotFound indicates the requested catalog record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Service serves immutable catalog snapshots loaded at startup. The mobile
// client treats these as fixed for the duration of a cart session; nothing
// here mutates after construction.
type Service struct {
	menu           []MenuItem
	menuByID       map[string]MenuItem
	stores         []Store
	storesByID     map[string]Store
	promos         []promo.Promo
	paymentMethods []PaymentMethod
	options        Options
	users          []User
	usersByID      map[string]User
}

// Config carries the seed snapshots a Service is built from.
type Config struct {
	Menu           []MenuItem
	Stores         []Store
	Promos         []promo.Promo
	PaymentMethods []PaymentMethod
	Options        Options
	Users          []User
}

// NewService indexes the seed data.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Menu) == 0 {
		return nil, errors.New("catalog: menu seed is empty")
	}
	s := &Service{
		menu:           cfg.Menu,
		menuByID:       make(map[string]MenuItem, len(cfg.Menu)),
		stores:         cfg.Stores,
		storesByID:     make(map[string]Store, len(cfg.Stores)),
		promos:         cfg.Promos,
		paymentMethods: cfg.PaymentMethods,
		options:        cfg.Options,
		users:          cfg.Users,
		usersByID:      make(map[string]User, len(cfg.Users)),
	}
	for _, item := range cfg.Menu {
		if _, dup := s.menuByID[item.ID]; dup {
			return nil, errors.New("catalog: duplicate menu item id " + item.ID)
		}
		s.menuByID[item.ID] = item
	}
	for _, store := range cfg.Stores {
		s.storesByID[store.ID] = store
	}
	for _, u := range cfg.Users {
		s.usersByID[u.ID] = u
	}
	return s, nil
}

// MenuFilter narrows a menu listing.
type MenuFilter struct {
	CategoryID string
	Tag        string
	Query      string
}

// Menu returns menu items matching the filter, in seed order.
func (s *Service) Menu(filter MenuFilter) []MenuItem {
	out := make([]MenuItem, 0, len(s.menu))
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	for _, item := range s.menu {
		if filter.CategoryID != "" && item.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Tag != "" && !hasTag(item.Tags, filter.Tag) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// MenuItem looks up an item by id.
func (s *Service) MenuItem(id string) (MenuItem, error) {
	item, ok := s.menuByID[id]
	if !ok {
		return MenuItem{}, ErrNotFound
	}
	return item, nil
}

// Stores returns all outlets sorted by distance.
func (s *Service) Stores() []Store {
	out := make([]Store, len(s.stores))
	copy(out, s.stores)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Store looks up an outlet by id.
func (s *Service) Store(id string) (Store, error) {
	store, ok := s.storesByID[id]
	if !ok {
		return Store{}, ErrNotFound
	}
	return store, nil
}

// Promos returns the promo catalog snapshot.
func (s *Service) Promos() []promo.Promo {
	out := make([]promo.Promo, len(s.promos))
	copy(out, s.promos)
	return out
}

// PaymentMethods returns the stored payment instruments.
func (s *Service) PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(s.paymentMethods))
	copy(out, s.paymentMethods)
	return out
}

// PaymentMethod looks up an instrument by id.
func (s *Service) PaymentMethod(id string) (PaymentMethod, error) {
	for _, method := range s.paymentMethods {
		if method.ID == id {
			return method, nil
		}
	}
	return PaymentMethod{}, ErrNotFound
}

// Options returns the shared customization table.
func (s *Service) Options() Options {
	return s.options
}

// User looks up a seeded member by id.
func (s *Service) User(id string) (User, error) {
	u, ok := s.usersByID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// UserByContact finds a member whose phone or email matches the contact.
func (s *Service) UserByContact(contact string) (User, error) {
	needle := strings.ToLower(strings.TrimSpace(contact))
	for _, u := range s.users {
		if strings.EqualFold(u.Phone, needle) || strings.ToLower(u.Email) == needle {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// UnitPrice computes the add-time price snapshot for a customized item:
// base price plus the size delta plus each chosen add-on.
func (s *Service) UnitPrice(item MenuItem, sizeLabel string, addOnLabels []string) float64 {
	price := item.BasePrice
	for _, size := range s.options.Sizes {
		if strings.EqualFold(strings.TrimSpace(size.Label), strings.TrimSpace(sizeLabel)) {
			price += size.PriceDelta
			break
		}
	}
	for _, label := range addOnLabels {
		for _, addOn := range s.options.AddOns {
			if strings.EqualFold(strings.TrimSpace(addOn.Label), strings.TrimSpace(label)) {
				price += addOn.Price
				break
			}
		}
	}
	return price
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
