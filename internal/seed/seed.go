// Package seed embeds the demo catalog the app ships with: menu, stores,
// promos, payment methods, members, reward rules, notifications, the demo
// order history, and the external order-status feed fixture.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/notify"
	"github.com/kopikita/backend-kopi/internal/order"
	"github.com/kopikita/backend-kopi/internal/promo"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

//go:embed data/*.json
var seedFS embed.FS

// Data bundles every parsed seed snapshot.
type Data struct {
	Users          []catalog.User
	Stores         []catalog.Store
	Menu           []catalog.MenuItem
	Promos         []promo.Promo
	PaymentMethods []catalog.PaymentMethod
	Options        catalog.Options
	RewardRules    []rewards.Rule
	Notifications  []notify.Notification
	Orders         []order.Order
	StatusUpdates  []order.StatusEvent
}

// Load parses every embedded seed file.
func Load() (Data, error) {
	var data Data
	if err := loadFile("data/users.json", &data.Users); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/stores.json", &data.Stores); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/menu.json", &data.Menu); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/promos.json", &data.Promos); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/payment_methods.json", &data.PaymentMethods); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/options.json", &data.Options); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/reward_rules.json", &data.RewardRules); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/notifications.json", &data.Notifications); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/orders.json", &data.Orders); err != nil {
		return Data{}, err
	}
	if err := loadFile("data/order_status_updates.json", &data.StatusUpdates); err != nil {
		return Data{}, err
	}
	return data, nil
}

func loadFile(name string, target any) error {
	raw, err := seedFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("seed: parse %s: %w", name, err)
	}
	return nil
}
