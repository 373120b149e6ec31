package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/stockroom/inventory-engine/catalog"
)

var inventoryHeader = []string{"Barcode", "Name", "Category", "Quantity", "Sale Price", "Location"}

// WriteInventoryXLSX writes all items to a single "Inventory" sheet
// with a bold header row.
func WriteInventoryXLSX(w io.Writer, items []catalog.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	header := make([]any, len(inventoryHeader))
	for i, h := range inventoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(inventoryHeader), 1)
		f.SetCellStyle(sheet, "A1", endCell, boldStyle)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		salePrice, _ := item.SalePrice.Float64()
		row := []any{item.Barcode, item.Name, item.Category, item.Quantity, salePrice, item.Location}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
