package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"bizledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"name":          "name",
	"product":       "name",
	"product name":  "name",
	"type":          "type",
	"product type":  "type",
	"category":      "type",
	"cost price":    "cost_price",
	"cost":          "cost_price",
	"buy price":     "cost_price",
	"sale price":    "sale_price",
	"sell price":    "sale_price",
	"price":         "sale_price",
	"quantity":      "quantity",
	"qty":           "quantity",
	"stock":         "quantity",
	"size inches":   "size_inches",
	"size":          "size_inches",
	"size (inches)": "size_inches",
	"weight grams":  "weight_grams",
	"weight":        "weight_grams",
	"weight (g)":    "weight_grams",
	"uf value":      "uf_value",
	"uf":            "uf_value",
	"watt value":    "watt_value",
	"watt":          "watt_value",
	"watts":         "watt_value",
}

// ProductRow is one importable spreadsheet row. Row is the 1-based sheet row
// number, used in error messages.
type ProductRow struct {
	Row        int
	Name       string
	Type       domain.ProductType
	CostPrice  decimal.Decimal
	SalePrice  decimal.Decimal
	Quantity   int
	Attributes domain.ProductAttributes
}

// ProductSheet is the parse result. Rows that fail validation are reported in
// Errors and left out of Rows. TotalRows counts non-blank data rows.
type ProductSheet struct {
	Rows      []ProductRow
	Errors    []string
	TotalRows int
}

// ParseProducts reads a product sheet from an xlsx or csv file. The format is
// picked by extension, and sniffed when the extension is unknown.
func ParseProducts(fileName string, reader io.Reader) (ProductSheet, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return ProductSheet{}, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return ProductSheet{}, fmt.Errorf("input file is empty")
	}

	var rows [][]string
	switch strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))) {
	case ".csv":
		rows, err = parseCSVRows(data)
	case ".xlsx", ".xlsm":
		rows, err = parseExcelRows(data)
	default:
		rows, err = parseExcelRows(data)
		if err != nil {
			rows, err = parseCSVRows(data)
		}
	}
	if err != nil {
		return ProductSheet{}, err
	}
	return parseProductTable(rows)
}

func parseCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	return rows, nil
}

func parseProductTable(rows [][]string) (ProductSheet, error) {
	colMap := mapColumns(rows[0])
	for _, required := range []string{"name", "type", "cost_price", "sale_price"} {
		if _, ok := colMap[required]; !ok {
			return ProductSheet{}, fmt.Errorf("missing required column: %s", required)
		}
	}

	sheet := ProductSheet{Rows: make([]ProductRow, 0, len(rows)-1)}
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := cleanText(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}
		sheet.TotalRows++

		row, err := parseProductRow(name, cells, colMap)
		if err != nil {
			sheet.Errors = append(sheet.Errors, fmt.Sprintf("row %d: %v", index+1, err))
			continue
		}
		row.Row = index + 1
		sheet.Rows = append(sheet.Rows, row)
	}

	if sheet.TotalRows == 0 {
		return ProductSheet{}, fmt.Errorf("file has no data rows")
	}
	return sheet, nil
}

func parseProductRow(name string, cells []string, colMap map[string]int) (ProductRow, error) {
	row := ProductRow{Name: name}

	productType, err := domain.ParseProductType(readCell(cells, colMap["type"]))
	if err != nil {
		return ProductRow{}, err
	}
	row.Type = productType

	if row.CostPrice, err = parsePrice(readCell(cells, colMap["cost_price"])); err != nil {
		return ProductRow{}, fmt.Errorf("invalid cost_price: %w", err)
	}
	if row.SalePrice, err = parsePrice(readCell(cells, colMap["sale_price"])); err != nil {
		return ProductRow{}, fmt.Errorf("invalid sale_price: %w", err)
	}

	if raw := readOptionalCell(cells, colMap, "quantity"); raw != "" {
		if row.Quantity, err = parseInt(raw); err != nil {
			return ProductRow{}, fmt.Errorf("invalid quantity: %w", err)
		}
	}

	if raw := readOptionalCell(cells, colMap, "size_inches"); raw != "" {
		value, err := parseFloat(raw)
		if err != nil {
			return ProductRow{}, fmt.Errorf("invalid size_inches: %w", err)
		}
		row.Attributes.SizeInches = &value
	}
	if raw := readOptionalCell(cells, colMap, "weight_grams"); raw != "" {
		value, err := parseFloat(raw)
		if err != nil {
			return ProductRow{}, fmt.Errorf("invalid weight_grams: %w", err)
		}
		row.Attributes.WeightGrams = &value
	}
	if raw := readOptionalCell(cells, colMap, "uf_value"); raw != "" {
		row.Attributes.UFValue = &raw
	}
	if raw := readOptionalCell(cells, colMap, "watt_value"); raw != "" {
		row.Attributes.WattValue = &raw
	}
	return row, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readOptionalCell(cells []string, colMap map[string]int, key string) string {
	idx, ok := colMap[key]
	if !ok {
		return ""
	}
	return cleanText(readCell(cells, idx))
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func normalizeNumericValue(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ReplaceAll(value, ",", "")
	return strings.TrimSpace(value)
}

func parsePrice(raw string) (decimal.Decimal, error) {
	value := normalizeNumericValue(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("value is empty")
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("price cannot be negative")
	}
	return parsed, nil
}

func parseInt(raw string) (int, error) {
	asFloat, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(asFloat), nil
}

func parseFloat(raw string) (float64, error) {
	value := normalizeNumericValue(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return parsed, nil
}
