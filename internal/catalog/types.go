package catalog

// Availability states for a menu item.
const (
	AvailabilityAvailable = "available"
	AvailabilitySoldOut   = "sold_out"
)

// MenuItem is one purchasable drink or food item.
type MenuItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CategoryID   string   `json:"categoryId"`
	BasePrice    float64  `json:"basePrice"`
	Description  string   `json:"description,omitempty"`
	Allergens    []string `json:"allergens,omitempty"`
	Tags         []string `json:"tags"`
	Badge        string   `json:"badge,omitempty"`
	Availability string   `json:"availability"`
	ImageURLs    []string `json:"imageUrls"`
}

// StoreHours is a store's daily opening window.
type StoreHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Store is a physical outlet orders are fulfilled from.
type Store struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Address           string     `json:"address"`
	Hours             StoreHours `json:"hours"`
	DistanceKm        float64    `json:"distanceKm"`
	IsPickupEnabled   bool       `json:"isPickupEnabled"`
	IsDeliveryEnabled bool       `json:"isDeliveryEnabled"`
}

// PaymentMethod is a stored payment instrument.
type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Token     string `json:"token"`
	Last4     string `json:"last4"`
	IsDefault bool   `json:"isDefault"`
}

// SizeOption is a cup size with its price delta over the base price.
type SizeOption struct {
	Label      string  `json:"label"`
	PriceDelta float64 `json:"priceDelta"`
}

// AddOnOption is an optional extra with its price.
type AddOnOption struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Options is the customization table shared across the menu.
type Options struct {
	Sizes       []SizeOption  `json:"sizes"`
	SugarLevels []string      `json:"sugarLevels"`
	AddOns      []AddOnOption `json:"addOns"`
}

// User is a seeded member record.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
	Tier     string `json:"tier"`
	Points   int    `json:"points"`
}
