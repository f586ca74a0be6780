package checkout

import (
	"time"

	"github.com/kopikita/backend-kopi/internal/catalog"
)

// SlotConfig controls pickup slot derivation.
type SlotConfig struct {
	// LeadMinutes is the minimum preparation time before the first slot.
	LeadMinutes int
	// IntervalMinutes is the spacing between slots.
	IntervalMinutes int
	// MaxSlots bounds the list; zero means every slot until close.
	MaxSlots int
}

const (
	defaultLeadMinutes     = 20
	defaultIntervalMinutes = 15
)

// PickupSlots derives the scheduable pickup times for a store on the
// current day: the first slot is the next interval boundary at least the
// lead time away, and slots run until the store closes. Outside opening
// hours the list is empty.
func PickupSlots(hours catalog.StoreHours, now time.Time, cfg SlotConfig) []string {
	lead := cfg.LeadMinutes
	if lead <= 0 {
		lead = defaultLeadMinutes
	}
	interval := cfg.IntervalMinutes
	if interval <= 0 {
		interval = defaultIntervalMinutes
	}

	open, err := clockOn(now, hours.Open)
	if err != nil {
		return nil
	}
	closeAt, err := clockOn(now, hours.Close)
	if err != nil {
		return nil
	}

	earliest := now.Add(time.Duration(lead) * time.Minute)
	if earliest.Before(open) {
		earliest = open
	}
	earliest = roundUpToInterval(earliest, interval)

	slots := make([]string, 0)
	for at := earliest; at.Before(closeAt); at = at.Add(time.Duration(interval) * time.Minute) {
		slots = append(slots, at.Format("15:04"))
		if cfg.MaxSlots > 0 && len(slots) >= cfg.MaxSlots {
			break
		}
	}
	return slots
}

// clockOn parses an "HH:MM" store-hours value onto the given day.
func clockOn(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

// roundUpToInterval snaps t forward to the next interval boundary measured
// from midnight.
func roundUpToInterval(t time.Time, intervalMinutes int) time.Time {
	interval := time.Duration(intervalMinutes) * time.Minute
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	elapsed := t.Sub(midnight)
	snapped := elapsed.Truncate(interval)
	if snapped < elapsed {
		snapped += interval
	}
	return midnight.Add(snapped)
}
