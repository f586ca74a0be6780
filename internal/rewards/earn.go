package rewards

import (
	"math"
	"sort"
	"time"
)

// Rule is a date-windowed earn rule: how many points an order's spend earns.
type Rule struct {
	ID                string    `json:"id"`
	PointsPerCurrency float64   `json:"pointsPerCurrency"`
	Multiplier        float64   `json:"multiplier"`
	ValidFrom         time.Time `json:"validFrom"`
	ValidTo           time.Time `json:"validTo"`
}

// SortRules orders rules by window start, earliest first.
func SortRules(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})
	return sorted
}

// RuleFor picks the rule whose window covers the given instant. When no
// window matches, the latest-starting rule acts as the standing rate,
// regardless of how the input slice is ordered.
func RuleFor(rules []Rule, at time.Time) (Rule, bool) {
	if len(rules) == 0 {
		return Rule{}, false
	}
	sorted := SortRules(rules)
	for _, r := range sorted {
		if !at.Before(r.ValidFrom) && !at.After(r.ValidTo) {
			return r, true
		}
	}
	return sorted[len(sorted)-1], true
}

// PointsForSpend converts an order amount into earned points under the rule
// in effect at the given time. Without any rule the fallback is one point
// per currency unit.
func PointsForSpend(amount float64, rules []Rule, at time.Time) int {
	rule, ok := RuleFor(rules, at)
	if !ok {
		return int(math.Round(amount))
	}
	return int(math.Round(amount * rule.PointsPerCurrency * rule.Multiplier))
}

// Tier is a loyalty tier reached at a point threshold.
type Tier struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	MinPoints int    `json:"minPoints"`
}

// Tiers lists the loyalty ladder, lowest first.
var Tiers = []Tier{
	{ID: "bronze", Label: "Bronze", MinPoints: 0},
	{ID: "silver", Label: "Silver", MinPoints: 50},
	{ID: "gold", Label: "Gold", MinPoints: 150},
	{ID: "platinum", Label: "Platinum", MinPoints: 300},
}

// TierFor returns the tier reached at the given balance and the next tier to
// work toward, if any.
func TierFor(points int) (current Tier, next *Tier) {
	current = Tiers[0]
	for i, tier := range Tiers {
		if points >= tier.MinPoints {
			current = tier
			if i+1 < len(Tiers) {
				t := Tiers[i+1]
				next = &t
			} else {
				next = nil
			}
		}
	}
	return current, next
}
