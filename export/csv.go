/*
Package export renders read-only bulk views of the inventory for
external consumption: spreadsheet (XLSX), document (PDF), and flat-file
(CSV).

PURPOSE:
  Exporters are presentation adapters. They consume bulk queries (all
  items, all transactions with line items) and write to an io.Writer;
  they never mutate state and carry no business rules.
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/stockroom/inventory-engine/ledger"
)

// Transaction CSV column order, kept stable for downstream tooling.
var transactionsCSVHeader = []string{
	"transaction_id", "timestamp", "user", "type", "customer", "total_amount",
	"item_barcode", "item_name", "qty_changed", "qty_before", "qty_after", "unit_price",
}

// WriteTransactionsCSV writes every transaction joined with its line
// items, one CSV row per line item. A transaction without lines still
// produces one row with empty line columns.
func WriteTransactionsCSV(w io.Writer, txs []ledger.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionsCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, tx := range txs {
		base := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Timestamp.Format(time.RFC3339),
			tx.PerformedBy,
			string(tx.Type),
			tx.Customer,
			tx.TotalAmount.String(),
		}
		if len(tx.Lines) == 0 {
			if err := cw.Write(append(base, "", "", "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, ln := range tx.Lines {
			row := append(append([]string{}, base...),
				ln.Barcode,
				ln.ItemName,
				strconv.FormatInt(ln.QuantityChanged, 10),
				strconv.FormatInt(ln.QuantityBefore, 10),
				strconv.FormatInt(ln.QuantityAfter, 10),
				ln.UnitPrice.String(),
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
