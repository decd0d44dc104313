package excel

import (
	"fmt"
	"io"

	"billing/internal/domain"
	"billing/internal/pricing"

	"github.com/xuri/excelize/v2"
)

const (
	InvoiceSheet = "Invoice"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// built-in "#,##0.00"
	numFmtAmount = 4
)

var itemHeaders = []string{"#", "Item", "Description", "Category", "Qty", "Area (sqft)", "Rate", "Total"}

// sheetWriter keeps the first error so row layout code stays linear.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(col, row int, value any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.file.SetCellValue(s.sheet, cell, value)
}

func (s *sheetWriter) style(fromCol, toCol, row, styleID int) {
	if s.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		s.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.file.SetCellStyle(s.sheet, from, to, styleID)
}

// WriteInvoice renders a generated invoice as a single-sheet workbook.
func WriteInvoice(w io.Writer, payload domain.RenderPayload) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	title, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	amount, err := file.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	totalAmount, err := file.NewStyle(&excelize.Style{NumFmt: numFmtAmount, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	sw := &sheetWriter{file: file, sheet: InvoiceSheet}

	sw.set(1, 1, payload.Company)
	sw.style(1, 1, 1, title)
	sw.set(1, 2, payload.TagLine)
	sw.set(1, 3, payload.Location)
	sw.set(1, 4, payload.Phone)

	sw.set(1, 6, "Invoice No")
	sw.set(2, 6, payload.InvoiceNo)
	sw.set(1, 7, "Date")
	sw.set(2, 7, payload.Date)
	sw.set(3, 7, payload.Day)
	sw.set(1, 8, "Bill To")
	sw.set(2, 8, payload.Client.Name)
	sw.set(1, 9, "Address")
	sw.set(2, 9, payload.Client.Address)
	sw.set(1, 10, "Phone")
	sw.set(2, 10, payload.Client.Phone)
	for row := 6; row <= 10; row++ {
		sw.style(1, 1, row, bold)
	}

	row := 12
	if payload.ProjectDescriptionEnabled && payload.ProjectDescription != "" {
		sw.set(1, row, "Project")
		sw.set(2, row, payload.ProjectDescription)
		sw.style(1, 1, row, bold)
		row += 2
	}

	for idx, header := range itemHeaders {
		sw.set(idx+1, row, header)
	}
	sw.style(1, len(itemHeaders), row, bold)
	row++

	for _, item := range payload.Rows {
		sw.set(1, row, item.Index)
		sw.set(2, row, item.Name)
		sw.set(3, row, item.Description)
		sw.set(4, row, item.Category)
		sw.set(5, row, item.Qty)
		if item.Area != nil {
			sw.set(6, row, *item.Area)
		}
		sw.set(7, row, item.Rate)
		sw.set(8, row, item.Total)
		sw.style(7, 8, row, amount)
		row++
	}

	row++
	summary := []struct {
		label string
		value float64
		skip  bool
	}{
		{label: "Sub Total", value: payload.SubTotal},
		{
			label: fmt.Sprintf("Discount (%g%%)", payload.DiscountPercent),
			value: payload.PercentDiscountAmount,
			skip:  payload.PercentDiscountAmount == 0,
		},
		{label: "Flat Discount", value: payload.DiscountFlat, skip: payload.DiscountFlat == 0},
	}
	for _, line := range summary {
		if line.skip {
			continue
		}
		sw.set(7, row, line.label)
		sw.set(8, row, line.value)
		sw.style(8, 8, row, amount)
		row++
	}

	sw.set(7, row, "Grand Total")
	sw.set(8, row, pricing.DisplayAmount(payload.GrandTotal))
	sw.style(7, 7, row, bold)
	sw.style(8, 8, row, totalAmount)
	row += 2

	sw.set(1, row, "Amount in Words")
	sw.set(2, row, payload.AmountWords)
	sw.style(1, 1, row, bold)

	if sw.err != nil {
		return fmt.Errorf("write invoice %s: %w", payload.InvoiceNo, sw.err)
	}
	if err := file.SetColWidth(InvoiceSheet, "B", "C", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
