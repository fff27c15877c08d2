package excel

import (
	"fmt"
	"io"
	"time"

	"bizledger/internal/domain"

	"github.com/xuri/excelize/v2"
)

const salesSheet = "Sales"

var salesHeader = []any{
	"Sale ID",
	"Date",
	"Client",
	"Product",
	"Type",
	"Quantity",
	"Unit Price",
	"Unit Cost",
	"Line Revenue",
	"Line Profit",
	"Cargo Slip",
	"Tracking No",
}

// WriteSales writes one row per sale line item. Dates are rendered in loc.
func WriteSales(w io.Writer, sales []domain.SaleView, loc *time.Location) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", salesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := file.SetSheetRow(salesSheet, "A1", &salesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := file.SetRowStyle(salesSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	rowNum := 2
	for _, sale := range sales {
		date := sale.Date.In(loc).Format("2006-01-02 15:04")
		for _, item := range sale.Items {
			row := []any{
				sale.ID,
				date,
				sale.ClientName,
				item.ProductName,
				string(item.ProductType),
				item.Quantity,
				item.SalePriceAtTime.InexactFloat64(),
				item.CostPriceAtTime.InexactFloat64(),
				item.Revenue().InexactFloat64(),
				item.Profit().InexactFloat64(),
				sale.CargoSlipInfo,
				sale.TrackingNo,
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := file.SetSheetRow(salesSheet, cell, &row); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := file.SetColWidth(salesSheet, "A", "A", 38); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := file.SetColWidth(salesSheet, "B", "D", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
