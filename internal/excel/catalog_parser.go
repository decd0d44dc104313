package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"billing/internal/domain"

	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"id":           "id",
	"product id":   "id",
	"code":         "id",
	"category":     "category",
	"group":        "category",
	"name":         "name",
	"product":      "name",
	"product name": "name",
	"item":         "name",
	"price":        "price",
	"unit price":   "price",
	"rate":         "price",
	"mrp":          "price",
	"description":  "description",
	"details":      "description",
}

var currencyReplacer = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	",", "",
)

// ParseCatalogRows reads catalog entries from an xlsx or csv file. The format
// is chosen by extension; unknown extensions try xlsx first, then csv.
func ParseCatalogRows(fileName string, reader io.Reader) ([]domain.CatalogEntry, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	switch strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))) {
	case ".csv":
		rows, err := parseCSVRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	case ".xlsx", ".xlsm":
		rows, err := parseExcelRows(data)
		if err != nil {
			return nil, err
		}
		return parseCatalogTable(rows)
	default:
		if rows, err := parseExcelRows(data); err == nil {
			if entries, err := parseCatalogTable(rows); err == nil {
				return entries, nil
			}
		}
		if rows, err := parseCSVRows(data); err == nil {
			if entries, err := parseCatalogTable(rows); err == nil {
				return entries, nil
			}
		}
		return nil, fmt.Errorf("unsupported or invalid catalog file format")
	}
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

func parseCatalogTable(rows [][]string) ([]domain.CatalogEntry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"category", "name", "price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]domain.CatalogEntry, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := cleanText(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}

		price, err := parsePrice(readCell(cells, colMap["price"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid price: %w", index+1, err)
		}

		result = append(result, domain.CatalogEntry{
			ID:          cleanText(readOptionalCell(cells, colMap, "id")),
			Category:    cleanText(readCell(cells, colMap["category"])),
			Name:        name,
			Description: cleanText(readOptionalCell(cells, colMap, "description")),
			Price:       price,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("catalog file has no valid data rows")
	}
	return result, nil
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
	value = strings.TrimPrefix(value, "\uFEFF")
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
	return readCell(cells, idx)
}

func parsePrice(raw string) (float64, error) {
	value := strings.TrimSpace(currencyReplacer.Replace(strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")))
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if parsed < 0 {
		return 0, fmt.Errorf("price cannot be negative")
	}
	return parsed, nil
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
