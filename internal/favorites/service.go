package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kopikita/backend-kopi/internal/kv"
)

// Service keeps each member's favorite menu items in the key-value store as
// a sorted id list.
type Service struct {
	Store kv.Store
}

func key(userID string) string { return "fav:" + userID }

func (s *Service) load(ctx context.Context, userID string) ([]string, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("favorites service not configured")
	}
	raw, ok, err := s.Store.Get(ctx, key(userID))
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return ids, nil
}

func (s *Service) save(ctx context.Context, userID string, ids []string) error {
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	return s.Store.Set(ctx, key(userID), raw)
}

// List returns the member's favorite item ids.
func (s *Service) List(ctx context.Context, userID string) ([]string, error) {
	return s.load(ctx, userID)
}

// Add marks an item as a favorite. Adding twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, itemID string) error {
	ids, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == itemID {
			return nil
		}
	}
	return s.save(ctx, userID, append(ids, itemID))
}

// Remove unmarks a favorite. Removing an absent item is a no-op.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	ids, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == itemID {
			return s.save(ctx, userID, append(ids[:i], ids[i+1:]...))
		}
	}
	return nil
}

// Has reports whether the item is a favorite.
func (s *Service) Has(ctx context.Context, userID, itemID string) (bool, error) {
	ids, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == itemID {
			return true, nil
		}
	}
	return false, nil
}
