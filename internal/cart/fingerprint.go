package cart

import (
	"sort"
	"strings"

	"github.com/kopikita/backend-kopi/internal/common"
)

// normalizeField canonicalizes one fingerprint component: lowercased,
// trimmed, internal whitespace runs collapsed to a single space.
func normalizeField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Fingerprint derives the merge identity of a cart line from the menu item
// and its full configuration. Two lines with the same fingerprint are the
// same product configured the same way and merge into one line; any
// difference, including notes, keeps them separate.
func Fingerprint(itemID, sizeLabel, sugarLabel string, addOnLabels []string, notes string) string {
	addOns := make([]string, 0, len(addOnLabels))
	for _, a := range addOnLabels {
		addOns = append(addOns, normalizeField(a))
	}
	sort.Strings(addOns)
	parts := []string{
		itemID,
		normalizeField(sizeLabel),
		normalizeField(sugarLabel),
		strings.Join(addOns, ","),
		normalizeField(notes),
	}
	return common.Sha256Hex(strings.Join(parts, ":"))
}
