package formatter

import (
	"fmt"
	"io"
	"strconv"

	"superforecaster/models"

	"github.com/xuri/excelize/v2"
)

// Severity fills, as used on the gap column.
var severityFills = map[models.GapSeverity]string{
	models.GapSatisfied: "C6EFCE",
	models.GapWarning:   "FFEB9C",
	models.GapCritical:  "FFC7CE",
}

// WriteXLSX writes the forecast as a workbook with one sheet per segment.
// Gap cells are filled by severity and past months are greyed out.
func WriteXLSX(w io.Writer, grid []models.SegmentForecast) error {
	data := prepareGridData(grid)
	f := excelize.NewFile()
	defer f.Close()

	header := headers()
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	pastStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "808080"}})
	if err != nil {
		return fmt.Errorf("past style: %w", err)
	}
	gapStyles := make(map[models.GapSeverity]int, len(severityFills))
	for severity, color := range severityFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("%s style: %w", severity, err)
		}
		gapStyles[severity] = id
	}

	gapCol := indexOf(header, "Gap") + 1
	lastCol, _ := excelize.ColumnNumberToName(len(header))

	for i, seg := range data {
		sheet := seg.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

		for j, m := range seg.Months {
			rowNum := j + 2
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			row := toInterfaces(rowCells(seg, m))
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %s: %w", seg.Key, m.Month, err)
			}
			if m.Past {
				f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, rowNum), pastStyle)
			}
			gapCell, _ := excelize.CoordinatesToCellName(gapCol, rowNum)
			f.SetCellStyle(sheet, gapCell, gapCell, gapStyles[m.Severity])
		}
		f.SetColWidth(sheet, "B", "B", 12)
		f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 2, YSplit: 1, TopLeftCell: "C2", ActivePane: "bottomRight"})
	}

	return f.Write(w)
}

// toInterfaces keeps numbers numeric in the sheet.
func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			out[i] = v
			continue
		}
		out[i] = c
	}
	return out
}

func indexOf(items []string, target string) int {
	for i, s := range items {
		if s == target {
			return i
		}
	}
	return -1
}
