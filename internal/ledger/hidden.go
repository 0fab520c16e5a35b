// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"fmt"
	"strings"
)

// hiddenBuyerPatterns is the placeholder vocabulary for obscured consignees.
// A declared buyer name containing any of these (case-insensitive) is a
// legal placeholder, not an actual end buyer: "to order" clauses, banks,
// and letter-of-credit references.
var hiddenBuyerPatterns = []string{
	"TO THE ORDER",
	"TO ORDER",
	"BANK",
	"L/C",
	"LETTER OF CREDIT",
	"SHIPPER ORDER",
	"ORDER OF SHIPPER",
}

// HiddenBuyer reports whether a declared buyer name denotes a hidden buyer:
// the name is absent, blank, or contains a placeholder pattern.
func HiddenBuyer(name *string) bool {
	if name == nil || strings.TrimSpace(*name) == "" {
		return true
	}
	upper := strings.ToUpper(*name)
	for _, pattern := range hiddenBuyerPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// hiddenBuyerExpr builds the SQL equivalent of HiddenBuyer over the named
// column, for backfilling the derived flag in bulk. The vocabulary contains
// no quote characters, so embedding the literals directly is safe.
func hiddenBuyerExpr(column string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CASE WHEN %s IS NULL OR TRIM(%s) = ''", column, column)
	for _, pattern := range hiddenBuyerPatterns {
		fmt.Fprintf(&b, " OR INSTR(UPPER(%s), '%s') > 0", column, pattern)
	}
	b.WriteString(" THEN 1 ELSE 0 END")
	return b.String()
}
