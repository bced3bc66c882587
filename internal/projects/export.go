package projects

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const moneyFormat = "#,##0.00"

// ProjectWorkbook renders one project: a summary sheet plus one sheet per sub-ledger.
func ProjectWorkbook(p *Project) (*excelize.File, error) {
	t := ComputeTotals(p)
	f := excelize.NewFile()

	summary := [][]any{
		{"รหัสโครงการ", "ชื่อโครงการ", "สถานะ", "ลูกค้า", "สถานที่", "วันเริ่ม", "วันสิ้นสุด", "วันทำงาน",
			"ค่าวัสดุ", "ผู้รับเหมาช่วง", "ค่าใช้จ่ายอื่น", "รวมทั้งหมด"},
		{p.Code, p.Name, string(p.Status), deref(p.CustomerName), deref(p.Location), dateText(p.StartDate),
			dateText(p.EndDate), p.WorkDays, money(t.Materials), money(t.SubcontractorsNet), money(t.Other), money(t.Grand)},
	}
	if err := writeTable(f, "Project", summary, 9); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	materials := [][]any{{"ยี่ห้อ", "รหัส", "รายการ", "หน่วย", "ราคาต่อหน่วย", "จำนวน", "รวม", "หมายเหตุ"}}
	for _, m := range p.Materials {
		materials = append(materials, []any{deref(m.Brand), deref(m.ItemCode), deref(m.ItemName), deref(m.Unit),
			money(m.UnitPrice), money(m.Qty), money(m.Cost()), deref(m.Note)})
	}
	if err := writeTable(f, "Materials", materials, 5); err != nil {
		return nil, err
	}

	subs := [][]any{{"ผู้รับเหมา", "ค่าจ้าง", "อัตราหัก ณ ที่จ่าย (%)", "หัก ณ ที่จ่าย", "จ่ายจริง", "หมายเหตุ"}}
	for _, s := range p.Subcontractors {
		subs = append(subs, []any{s.VendorName, money(s.ContractAmount), money(s.WithholdingRate),
			money(s.WithholdingAmount), money(s.Payable()), deref(s.Note)})
	}
	if err := writeTable(f, "Subcontractors", subs, 2); err != nil {
		return nil, err
	}

	expenses := [][]any{{"หมวด", "รายการ", "จำนวนเงิน", "หมายเหตุ"}}
	for _, e := range p.Expenses {
		expenses = append(expenses, []any{e.Category, e.Title, money(e.Amount), deref(e.Note)})
	}
	if err := writeTable(f, "Expenses", expenses, 3); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// DashboardWorkbook lists every project of the period with its totals.
func DashboardWorkbook(d *Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	rows := [][]any{{"รหัส", "ชื่อโครงการ", "ค่าวัสดุ", "ผู้รับเหมาช่วง", "อื่นๆ", "รวม"}}
	for _, s := range d.Projects {
		rows = append(rows, []any{s.Code, s.Name, money(s.Totals.Materials), money(s.Totals.SubcontractorsNet),
			money(s.Totals.Other), money(s.Totals.Grand)})
	}
	rows = append(rows, []any{"", "รวมทั้งหมด", money(d.Totals.Materials), money(d.Totals.SubcontractorsNet),
		money(d.Totals.Other), money(d.Totals.Grand)})
	if err := writeTable(f, "Dashboard", rows, 3); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

// DashboardFilename is the download name for a period export.
func DashboardFilename(p Period) string {
	month := "all"
	if p.Month > 0 {
		month = fmt.Sprint(p.Month)
	}
	return fmt.Sprintf("dashboard_%d_%s.xlsx", p.Year, month)
}

// writeTable writes rows to a new sheet with a styled header row. Columns from
// moneyCol onwards (1-based) get a money number format.
func writeTable(f *excelize.File, sheet string, rows [][]any, moneyCol int) error {
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	f.SetActiveSheet(idx)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	border := []excelize.Border{
		{Type: "left", Color: "3A3A3A", Style: 1},
		{Type: "right", Color: "3A3A3A", Style: 1},
		{Type: "top", Color: "3A3A3A", Style: 1},
		{Type: "bottom", Color: "3A3A3A", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Border: border, Alignment: &excelize.Alignment{Vertical: "center"}})
	if err != nil {
		return err
	}
	numFmt := moneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}

	width := len(rows[0])
	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if len(rows) > 1 {
		end, _ := excelize.CoordinatesToCellName(width, len(rows))
		if err := f.SetCellStyle(sheet, "A2", end, bodyStyle); err != nil {
			return err
		}
		if moneyCol <= width {
			from, _ := excelize.CoordinatesToCellName(moneyCol, 2)
			if err := f.SetCellStyle(sheet, from, end, moneyStyle); err != nil {
				return err
			}
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(width)
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func dateText(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
