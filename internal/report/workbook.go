package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a workbook.
type Sheet struct {
	Name  string
	Table *dataset.Table
}

const maxSheetName = 31

// SheetName turns an arbitrary label into a valid, unique worksheet name.
func SheetName(label string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, label)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	// Excel counts characters, not bytes.
	base := []rune(name)
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	name = string(base)
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		name = string(cut) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// WriteWorkbook writes every sheet as a worksheet with a bold header row.
// Numeric cells are stored as numbers.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s: no sheets", path)
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"003366"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}
	used := map[string]bool{}
	for i, s := range sheets {
		name := SheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table, bold); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *dataset.Table, headerStyle int) error {
	header := make([]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(t.Columns))
		for j, raw := range t.Row(i) {
			if v, ok := dataset.ParseNumber(raw); ok && !strings.EqualFold(raw, "true") && !strings.EqualFold(raw, "false") {
				row[j] = v
			} else {
				row[j] = raw
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
