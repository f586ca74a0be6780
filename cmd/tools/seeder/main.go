// Command seeder validates the embedded seed snapshots and optionally dumps
// one of them as JSON. Run it after editing internal/seed/data to catch
// malformed records before the API boots.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/seed"
)

func main() {
	dump := flag.String("dump", "", "dump one dataset as JSON: menu, stores, promos, payment-methods, users, reward-rules, notifications, orders, status-updates")
	flag.Parse()

	data, err := seed.Load()
	if err != nil {
		log.Fatalf("load seeds: %v", err)
	}

	// Building the catalog runs the referential checks (duplicate ids,
	// empty menu) that seed.Load alone does not.
	if _, err := catalog.NewService(catalog.Config{
		Menu:           data.Menu,
		Stores:         data.Stores,
		Promos:         data.Promos,
		PaymentMethods: data.PaymentMethods,
		Options:        data.Options,
		Users:          data.Users,
	}); err != nil {
		log.Fatalf("validate seeds: %v", err)
	}

	if *dump != "" {
		var target any
		switch *dump {
		case "menu":
			target = data.Menu
		case "stores":
			target = data.Stores
		case "promos":
			target = data.Promos
		case "payment-methods":
			target = data.PaymentMethods
		case "users":
			target = data.Users
		case "reward-rules":
			target = data.RewardRules
		case "notifications":
			target = data.Notifications
		case "orders":
			target = data.Orders
		case "status-updates":
			target = data.StatusUpdates
		default:
			log.Fatalf("unknown dataset: %s", *dump)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(target); err != nil {
			log.Fatalf("encode %s: %v", *dump, err)
		}
		return
	}

	fmt.Printf("seeds ok: %d menu items, %d stores, %d promos, %d payment methods, %d users, %d reward rules, %d notifications, %d orders, %d status updates\n",
		len(data.Menu), len(data.Stores), len(data.Promos), len(data.PaymentMethods),
		len(data.Users), len(data.RewardRules), len(data.Notifications), len(data.Orders), len(data.StatusUpdates))
}
