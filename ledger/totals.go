package ledger

import "github.com/shopspring/decimal"

// TotalRule computes a transaction's total amount from its resolved
// lines. It is a configurable policy rather than a fixed formula: the
// historical behavior values adjustment/damage/return at the absolute
// quantity change times unit price, which may not be economically
// meaningful, so deployments can swap the rule without touching the
// engine.
type TotalRule func(t TransactionType, lines []Line) decimal.Decimal

// DefaultTotalRule preserves the historical policy:
//   - sale:             sum of |quantity_changed| * unit_price (sale price)
//   - purchase/restock: sum of quantity_changed * unit_price (purchase price)
//   - everything else:  sum of |quantity_changed| * unit_price, informational
func DefaultTotalRule(t TransactionType, lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		qty := ln.QuantityChanged
		if t != TxPurchase && t != TxRestock && qty < 0 {
			qty = -qty
		}
		total = total.Add(ln.UnitPrice.Mul(decimal.NewFromInt(qty)))
	}
	return total
}
