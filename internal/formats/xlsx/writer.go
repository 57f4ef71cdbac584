package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlprompt/internal/table"
)

// Sheet is a plain grid of cell text used to build workbooks.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook is a list of sheets to write.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// WriteFile creates an .xlsx file from wb. Cell text that parses as a number,
// boolean or ISO date is stored with that type so it reads back typed.
func WriteFile(wb *Workbook, path string) error {
	f, err := build(wb)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// WriteBytes encodes wb as .xlsx bytes.
func WriteBytes(wb *Workbook) ([]byte, error) {
	f, err := build(wb)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func build(wb *Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, sheet := range wb.Sheets {
		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// Rename default sheet
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				f.Close()
				return nil, fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				f.Close()
				return nil, fmt.Errorf("could not create sheet %q: %w", sheetName, err)
			}
		}

		for rowIdx, row := range sheet.Rows {
			for colIdx, text := range row {
				if text == "" {
					continue
				}
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("invalid cell coordinates: %w", err)
				}
				if err := f.SetCellValue(sheetName, cellName, cellValue(rowIdx, text)); err != nil {
					f.Close()
					return nil, fmt.Errorf("could not set cell %s: %w", cellName, err)
				}
			}
		}
	}

	return f, nil
}

// cellValue keeps the header row as text and types everything below it.
func cellValue(rowIdx int, text string) any {
	if rowIdx == 0 {
		return text
	}
	c := table.ParseCell(text)
	switch c.Kind {
	case table.Integer:
		return c.Int
	case table.Float:
		return c.Float
	case table.Boolean:
		return c.Bool
	case table.Date:
		return c.Time
	}
	return text
}
