// Package export renders a patient's visit history as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/risk"
)

const visitSheet = "Visits"

// VisitHeader is the first row of the visits sheet.
var VisitHeader = []string{
	"Visit Date",
	"Gestational Weeks",
	"Blood Pressure",
	"Hemoglobin (g/dL)",
	"Risk Level",
	"Confidence (%)",
	"Flags",
	"Notes",
}

var columnWidths = []float64{14, 18, 16, 18, 12, 15, 60, 40}

var levelFill = map[risk.Level]string{
	risk.LevelRed:   "#F8D7DA",
	risk.LevelAmber: "#FFF3CD",
	risk.LevelGreen: "#D4EDDA",
}

// FileName is the attachment name for a patient's export.
func FileName(p models.Patient) string {
	id := p.RCHID
	if id == "" {
		id = p.ID
	}
	return fmt.Sprintf("anc-visits-%s.xlsx", strings.ReplaceAll(id, " ", "_"))
}

// VisitHistory writes one row per visit in the order given.
func VisitHistory(visits []models.Visit) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(visitSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	levelStyles := make(map[risk.Level]int, len(levelFill))
	for level, color := range levelFill {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", level, err)
		}
		levelStyles[level] = style
	}

	for col, header := range VisitHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(visitSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(visitSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(visitSheet, name, name, columnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, v := range visits {
		row := i + 2
		obs := v.Observation.Data()
		result := v.Risk.Data()
		values := []interface{}{
			v.VisitDate.Format("2006-01-02"),
			measureCell(obs.GestationalWeeks),
			bpCell(obs.Vitals),
			measureCell(obs.Labs.Hemoglobin),
			string(result.Level),
			result.Confidence,
			flagsCell(result.Flags),
			v.Notes,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(visitSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
		if style, ok := levelStyles[result.Level]; ok {
			cell, _ := excelize.CoordinatesToCellName(5, row)
			if err := f.SetCellStyle(visitSheet, cell, cell, style); err != nil {
				return nil, fmt.Errorf("failed to style level cell: %w", err)
			}
		}
	}

	if err := f.SetPanes(visitSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func measureCell(m risk.Measure) interface{} {
	if v, ok := m.Get(); ok {
		return v
	}
	return ""
}

func bpCell(v risk.Vitals) string {
	sys, okS := v.BPSystolic.Get()
	dia, okD := v.BPDiastolic.Get()
	if !okS && !okD {
		return ""
	}
	format := func(x float64, ok bool) string {
		if !ok {
			return "-"
		}
		return fmt.Sprintf("%g", x)
	}
	return format(sys, okS) + "/" + format(dia, okD)
}

func flagsCell(flags []risk.Flag) string {
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.Condition
	}
	return strings.Join(names, "; ")
}
