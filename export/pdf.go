package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/stockroom/inventory-engine/catalog"
)

// Column widths in mm, summing to the usable width of a letter page.
var pdfColWidths = []float64{42, 48, 28, 20, 24, 32}

// WriteInventoryPDF writes all items as a grid table, one row per item,
// with a shaded bold header.
func WriteInventoryPDF(w io.Writer, items []catalog.Item) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("Inventory Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range inventoryHeader {
		pdf.CellFormat(pdfColWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, item := range items {
		cells := []string{
			item.Barcode,
			item.Name,
			item.Category,
			strconv.FormatInt(item.Quantity, 10),
			item.SalePrice.StringFixed(2),
			item.Location,
		}
		for i, c := range cells {
			pdf.CellFormat(pdfColWidths[i], 6, c, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
