package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrMissingCode is returned when the submitted code is empty after normalization.
	ErrMissingCode = errors.New("promo code required")
	// ErrNotRecognized is returned when no catalog promo matches the code.
	ErrNotRecognized = errors.New("promo code not recognized")
	// ErrExpired is returned when the promo's expiry day has passed.
	ErrExpired = errors.New("promo expired")
	// ErrMinimumSpendUnmet indicates the subtotal did not meet the promo requirement.
	ErrMinimumSpendUnmet = errors.New("promo minimum spend not met")
)

// Kind discriminates how a promo's amount is interpreted.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// Promo is a code-based discount rule from the promo catalog.
type Promo struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Kind        Kind    `json:"type"`
	Amount      float64 `json:"amount"`
	MinSpend    float64 `json:"minSpend"`
	Expiry      Date    `json:"expiry"`
	Eligibility string  `json:"eligibility,omitempty"`
}

// Normalize canonicalizes a user-entered code: trim, uppercase, and strip
// internal whitespace. Catalog codes go through the same normalization so
// matching is case and whitespace insensitive.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(code) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Expired reports whether now falls after the promo's expiry day. Expiry is
// inclusive through end of day.
func (p Promo) Expired(now time.Time) bool {
	if p.Expiry.IsZero() {
		return false
	}
	return !now.Before(p.Expiry.EndOfDay())
}

// Eligible reports whether the promo can currently discount the subtotal.
func (p Promo) Eligible(subtotal float64, now time.Time) bool {
	return subtotal >= p.MinSpend && !p.Expired(now)
}

// Evaluate validates a submitted code against the catalog and returns the
// matched promo. Failures are sentinel errors covering the four rejection
// categories: missing, not recognized, expired, below minimum spend.
func Evaluate(code string, subtotal float64, catalog []Promo, now time.Time) (Promo, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return Promo{}, ErrMissingCode
	}
	for _, p := range catalog {
		if Normalize(p.Code) != normalized {
			continue
		}
		if p.Expired(now) {
			return Promo{}, ErrExpired
		}
		if subtotal < p.MinSpend {
			return Promo{}, fmt.Errorf("%w: minimum spend RM%.2f", ErrMinimumSpendUnmet, p.MinSpend)
		}
		return p, nil
	}
	return Promo{}, ErrNotRecognized
}

// Discount computes the currency discount the promo grants on the subtotal.
// An ineligible promo discounts nothing; the result never exceeds the
// subtotal.
func Discount(p Promo, subtotal float64, now time.Time) float64 {
	if !p.Eligible(subtotal, now) {
		return 0
	}
	raw := p.Amount
	if p.Kind == KindPercent {
		raw = subtotal * p.Amount / 100
	}
	if raw > subtotal {
		raw = subtotal
	}
	if raw < 0 {
		return 0
	}
	return raw
}
