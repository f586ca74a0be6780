package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/kv"
)

// Preferences are the notification and app preferences the client can edit.
type Preferences struct {
	OrderUpdates    bool   `json:"orderUpdates"`
	Promotions      bool   `json:"promotions"`
	NewsAndOffers   bool   `json:"newsAndOffers"`
	Language        string `json:"language"`
	PreferredStore  string `json:"preferredStore,omitempty"`
	DietaryKeywords string `json:"dietaryKeywords,omitempty"`
}

// DefaultPreferences is what new members start with.
func DefaultPreferences() Preferences {
	return Preferences{
		OrderUpdates:  true,
		Promotions:    true,
		NewsAndOffers: false,
		Language:      "en",
	}
}

// Profile is the editable profile overlay stored per member. The immutable
// parts (member id, tier) come from the seeded user record.
type Profile struct {
	DisplayName string      `json:"displayName,omitempty"`
	AvatarURL   string      `json:"avatarUrl,omitempty"`
	Preferences Preferences `json:"preferences"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Address is a saved delivery address.
type Address struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	Notes      string    `json:"notes,omitempty"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AddressInput captures payload for creating or updating an address.
type AddressInput struct {
	Label      string `json:"label" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Notes      string `json:"notes"`
	IsDefault  bool   `json:"isDefault"`
}

// ErrAddressNotFound is returned for unknown address ids.
var ErrAddressNotFound = errors.New("address not found")

// Service keeps per-member profile and address data in the key-value store.
type Service struct {
	Store kv.Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func profileKey(userID string) string { return "user:profile:" + userID }

func addressKey(userID string) string { return "user:addresses:" + userID }

// Profile loads the member's profile overlay, defaulting when absent.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	if s == nil || s.Store == nil {
		return Profile{}, errors.New("user service not configured")
	}
	raw, ok, err := s.Store.Get(ctx, profileKey(userID))
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return Profile{Preferences: DefaultPreferences()}, nil
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces the member's profile overlay.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p Profile) (Profile, error) {
	if s == nil || s.Store == nil {
		return Profile{}, errors.New("user service not configured")
	}
	if strings.TrimSpace(p.Preferences.Language) == "" {
		p.Preferences.Language = DefaultPreferences().Language
	}
	p.UpdatedAt = s.now()
	raw, err := json.Marshal(p)
	if err != nil {
		return Profile{}, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.Store.Set(ctx, profileKey(userID), raw); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *Service) loadAddresses(ctx context.Context, userID string) ([]Address, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("user service not configured")
	}
	raw, ok, err := s.Store.Get(ctx, addressKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var addresses []Address
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	return addresses, nil
}

func (s *Service) saveAddresses(ctx context.Context, userID string, addresses []Address) error {
	raw, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("encode addresses: %w", err)
	}
	return s.Store.Set(ctx, addressKey(userID), raw)
}

// Addresses lists the member's saved addresses, default first.
func (s *Service) Addresses(ctx context.Context, userID string) ([]Address, error) {
	addresses, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i, a := range addresses {
		if a.IsDefault && i != 0 {
			addresses[0], addresses[i] = addresses[i], addresses[0]
			break
		}
	}
	return addresses, nil
}

// AddAddress appends a new address. The first address becomes the default;
// marking a later one default demotes the others.
func (s *Service) AddAddress(ctx context.Context, userID string, in AddressInput) (Address, error) {
	addresses, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	now := s.now()
	address := Address{
		ID:         "addr_" + uuid.NewString(),
		Label:      strings.TrimSpace(in.Label),
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      strings.TrimSpace(in.Line2),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Notes:      strings.TrimSpace(in.Notes),
		IsDefault:  in.IsDefault || len(addresses) == 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if address.IsDefault {
		for i := range addresses {
			addresses[i].IsDefault = false
		}
	}
	addresses = append(addresses, address)
	if err := s.saveAddresses(ctx, userID, addresses); err != nil {
		return Address{}, err
	}
	return address, nil
}

// UpdateAddress replaces an address's editable fields.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (Address, error) {
	addresses, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	idx := -1
	for i, a := range addresses {
		if a.ID == addressID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Address{}, common.NewAppError("NOT_FOUND", "address not found", http.StatusNotFound, ErrAddressNotFound)
	}
	address := addresses[idx]
	address.Label = strings.TrimSpace(in.Label)
	address.Line1 = strings.TrimSpace(in.Line1)
	address.Line2 = strings.TrimSpace(in.Line2)
	address.City = strings.TrimSpace(in.City)
	address.PostalCode = strings.TrimSpace(in.PostalCode)
	address.Notes = strings.TrimSpace(in.Notes)
	address.UpdatedAt = s.now()
	if in.IsDefault && !address.IsDefault {
		for i := range addresses {
			addresses[i].IsDefault = false
		}
		address.IsDefault = true
	}
	addresses[idx] = address
	if err := s.saveAddresses(ctx, userID, addresses); err != nil {
		return Address{}, err
	}
	return address, nil
}

// DeleteAddress removes an address. Deleting the default promotes the first
// remaining address so there is always a default while any exist.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	addresses, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return err
	}
	idx := -1
	for i, a := range addresses {
		if a.ID == addressID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.NewAppError("NOT_FOUND", "address not found", http.StatusNotFound, ErrAddressNotFound)
	}
	wasDefault := addresses[idx].IsDefault
	addresses = append(addresses[:idx], addresses[idx+1:]...)
	if wasDefault && len(addresses) > 0 {
		addresses[0].IsDefault = true
	}
	return s.saveAddresses(ctx, userID, addresses)
}
