package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kopikita/backend-kopi/internal/pricing"
	"github.com/kopikita/backend-kopi/internal/promo"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

// Customizations is a cart line's drink configuration.
type Customizations struct {
	SizeLabel   string   `json:"sizeLabel"`
	SugarLabel  string   `json:"sugarLabel"`
	AddOnLabels []string `json:"addOnLabels"`
}

// Line is one entry of the cart ledger.
type Line struct {
	ID             string         `json:"id"`
	ItemID         string         `json:"itemId"`
	Name           string         `json:"name"`
	Qty            int            `json:"qty"`
	UnitPrice      float64        `json:"unitPrice"`
	Customizations Customizations `json:"customizations"`
	Notes          string         `json:"notes,omitempty"`
	Fingerprint    string         `json:"-"`
}

// Totals is the cart's derived pricing state. Every field is recomputed
// from the lines on each read; nothing here is stored.
type Totals struct {
	Subtotal            float64      `json:"subtotal"`
	PromoCode           string       `json:"promoCode,omitempty"`
	PromoDiscount       float64      `json:"promoDiscount"`
	SubtotalAfterPromo  float64      `json:"subtotalAfterPromo"`
	RedeemedPoints      int          `json:"redeemedPoints"`
	MaxRedeemablePoints int          `json:"maxRedeemablePoints"`
	RewardsDiscount     float64      `json:"rewardsDiscount"`
	Fees                pricing.Fees `json:"fees"`
	Total               float64      `json:"total"`
}

// Snapshot is a point-in-time copy of the full cart state.
type Snapshot struct {
	ID      string       `json:"id"`
	UserID  string       `json:"userId"`
	StoreID string       `json:"storeId"`
	Lines   []Line       `json:"lines"`
	Totals  Totals       `json:"totals"`
	Promo   *promo.Promo `json:"promo,omitempty"`
}

// Ledger is one user's live cart. All mutations run the standing
// invariants before returning: an applied promo that is no longer eligible
// is evicted, and the redeemed point count is re-clamped to what the
// remaining lines can absorb.
type Ledger struct {
	mu sync.Mutex

	id      string
	userID  string
	storeID string

	schedule pricing.Schedule
	policy   rewards.Policy
	now      func() time.Time

	lines           []Line
	applied         *promo.Promo
	redeemedPoints  int
	availablePoints int
}

// NewLedger creates an empty cart for a user at a store.
func NewLedger(id, userID, storeID string, schedule pricing.Schedule, policy rewards.Policy, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		id:       id,
		userID:   userID,
		storeID:  storeID,
		schedule: schedule,
		policy:   policy,
		now:      now,
	}
}

// ID returns the cart identifier.
func (l *Ledger) ID() string { return l.id }

// UserID returns the owning user.
func (l *Ledger) UserID() string { return l.userID }

// StoreID returns the store the cart was opened against.
func (l *Ledger) StoreID() string { return l.storeID }

// AddInput describes a line to add. UnitPrice is the server-side price for
// the item with this configuration; clients never supply prices.
type AddInput struct {
	ItemID         string
	Name           string
	Qty            int
	UnitPrice      float64
	Customizations Customizations
	Notes          string
}

// AddItem appends a line, or merges quantities into an existing line with
// the same configuration fingerprint. Non-positive quantities are ignored.
func (l *Ledger) AddItem(in AddInput) {
	if in.Qty <= 0 {
		return
	}
	fp := Fingerprint(in.ItemID, in.Customizations.SizeLabel, in.Customizations.SugarLabel, in.Customizations.AddOnLabels, in.Notes)

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].Fingerprint == fp {
			l.lines[i].Qty += in.Qty
			l.reconcile()
			return
		}
	}
	l.lines = append(l.lines, Line{
		ID:        "ln_" + uuid.NewString(),
		ItemID:    in.ItemID,
		Name:      in.Name,
		Qty:       in.Qty,
		UnitPrice: in.UnitPrice,
		Customizations: Customizations{
			SizeLabel:   in.Customizations.SizeLabel,
			SugarLabel:  in.Customizations.SugarLabel,
			AddOnLabels: append([]string(nil), in.Customizations.AddOnLabels...),
		},
		Notes:       in.Notes,
		Fingerprint: fp,
	})
	l.reconcile()
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
// Unknown line ids are a silent no-op.
func (l *Ledger) UpdateQuantity(lineID string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].ID != lineID {
			continue
		}
		if qty <= 0 {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
		} else {
			l.lines[i].Qty = qty
		}
		l.reconcile()
		return
	}
}

// RemoveLine deletes a line. Unknown line ids are a silent no-op.
func (l *Ledger) RemoveLine(lineID string) {
	l.UpdateQuantity(lineID, 0)
}

// ApplyPromo validates a code against the promo catalog at the cart's
// current subtotal and applies the matched promo. Only one promo is held at
// a time; a successful apply replaces any previous one.
func (l *Ledger) ApplyPromo(catalog []promo.Promo, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	matched, err := promo.Evaluate(code, l.subtotal(), catalog, l.now())
	if err != nil {
		return err
	}
	l.applied = &matched
	l.reconcile()
	return nil
}

// RemovePromo drops the applied promo, if any.
func (l *Ledger) RemovePromo() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applied = nil
	l.reconcile()
}

// SetAvailablePoints records the member's current loyalty balance. The
// redeemed count is re-clamped against it.
func (l *Ledger) SetAvailablePoints(points int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if points < 0 {
		points = 0
	}
	l.availablePoints = points
	l.reconcile()
}

// RedeemPoints sets how many points to spend on this cart. The request is
// clamped into [0, max redeemable]; it never errors, mirroring the slider
// the client presents.
func (l *Ledger) RedeemPoints(points int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if points < 0 {
		points = 0
	}
	l.redeemedPoints = points
	l.reconcile()
}

// Clear empties the cart: lines, promo, and redeemed points.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.applied = nil
	l.redeemedPoints = 0
}

// Totals recomputes the derived pricing state.
func (l *Ledger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals()
}

// Snapshot copies the full cart state under one lock acquisition.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := make([]Line, len(l.lines))
	copy(lines, l.lines)
	for i := range lines {
		lines[i].Customizations.AddOnLabels = append([]string(nil), lines[i].Customizations.AddOnLabels...)
	}
	snap := Snapshot{
		ID:      l.id,
		UserID:  l.userID,
		StoreID: l.storeID,
		Lines:   lines,
		Totals:  l.totals(),
	}
	if l.applied != nil {
		p := *l.applied
		snap.Promo = &p
	}
	return snap
}

// subtotal sums the lines. Callers hold the lock.
func (l *Ledger) subtotal() float64 {
	var sum float64
	for _, line := range l.lines {
		sum += float64(line.Qty) * line.UnitPrice
	}
	return pricing.Round2(sum)
}

// reconcile enforces the standing invariants after a mutation: evict a
// promo the cart no longer qualifies for, then re-clamp redeemed points to
// the post-promo subtotal. Callers hold the lock.
func (l *Ledger) reconcile() {
	sub := l.subtotal()
	if l.applied != nil && !l.applied.Eligible(sub, l.now()) {
		l.applied = nil
	}
	afterPromo := sub
	if l.applied != nil {
		afterPromo = pricing.Round2(sub - promo.Discount(*l.applied, sub, l.now()))
	}
	max := l.policy.MaxRedeemable(l.availablePoints, afterPromo)
	if l.redeemedPoints > max {
		l.redeemedPoints = max
	}
}

// totals runs the pricing pipeline in its fixed order: subtotal, promo,
// rewards, fees, grand total. Callers hold the lock.
func (l *Ledger) totals() Totals {
	now := l.now()
	sub := l.subtotal()

	var promoDiscount float64
	var promoCode string
	if l.applied != nil {
		promoDiscount = pricing.Round2(promo.Discount(*l.applied, sub, now))
		promoCode = l.applied.Code
	}
	afterPromo := pricing.Round2(sub - promoDiscount)

	max := l.policy.MaxRedeemable(l.availablePoints, afterPromo)
	redeemed := l.redeemedPoints
	if redeemed > max {
		redeemed = max
	}
	rewardsDiscount := l.policy.Discount(redeemed, max, afterPromo)

	fees := l.schedule.Compute(sub)

	total := sub + fees.Total - promoDiscount - rewardsDiscount
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal:            sub,
		PromoCode:           promoCode,
		PromoDiscount:       promoDiscount,
		SubtotalAfterPromo:  afterPromo,
		RedeemedPoints:      redeemed,
		MaxRedeemablePoints: max,
		RewardsDiscount:     rewardsDiscount,
		Fees:                fees,
		Total:               pricing.Round2(total),
	}
}
