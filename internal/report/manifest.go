// Package report renders manifests for printing and spreadsheets.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"logistics-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

//go:embed templates/manifest.html
var templateFS embed.FS

var manifestTmpl = template.Must(
	template.New("manifest.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/manifest.html"),
)

const sheetName = "Manifest"

type manifestView struct {
	Manifest      *models.Manifest
	Dockets       []models.Docket
	GeneratedAt   string
	TotalPackages int
	TotalWeight   float64
}

func newView(m *models.Manifest) manifestView {
	v := manifestView{
		Manifest:    m,
		GeneratedAt: m.GeneratedAt.Format("02-Jan-2006 15:04"),
	}
	if m.LoadingSheet != nil {
		v.Dockets = m.LoadingSheet.Dockets
	}
	for _, d := range v.Dockets {
		v.TotalPackages += d.TotalPackages
		v.TotalWeight += d.TotalWeight
	}
	return v
}

// ManifestHTML renders the printable manifest page.
func ManifestHTML(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := manifestTmpl.Execute(&buf, newView(m)); err != nil {
		return nil, fmt.Errorf("render manifest %s: %w", m.ManifestNumber, err)
	}
	return buf.Bytes(), nil
}

// ManifestXLSX builds a one-sheet workbook: header block, one row per docket
// and a totals row.
func ManifestXLSX(m *models.Manifest) ([]byte, error) {
	v := newView(m)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	header := [][]any{
		{"Manifest", m.ManifestNumber},
		{"Generated", m.GeneratedAt.Format(time.RFC3339)},
	}
	if ls := m.LoadingSheet; ls != nil {
		header = append(header,
			[]any{"Loading sheet", ls.SheetNumber},
			[]any{"Vehicle", ls.VehicleNumber},
			[]any{"Driver", ls.DriverName},
			[]any{"Destination", ls.Destination},
		)
	}

	row := 1
	for _, h := range header {
		if err := setRow(f, row, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell("A", row), cell("A", row), bold); err != nil {
			return nil, err
		}
		row++
	}
	row++

	columns := []any{"#", "Docket", "Sender", "Receiver", "Receiver address", "Packages", "Weight (kg)", "Status"}
	if err := setRow(f, row, columns); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, cell("A", row), cell("H", row), bold); err != nil {
		return nil, err
	}
	row++

	for i, d := range v.Dockets {
		line := []any{i + 1, d.DocketNumber, d.SenderName, d.ReceiverName, d.ReceiverAddress, d.TotalPackages, d.TotalWeight, string(d.Status)}
		if err := setRow(f, row, line); err != nil {
			return nil, err
		}
		row++
	}

	if err := setRow(f, row, []any{"Total", nil, nil, nil, nil, v.TotalPackages, v.TotalWeight}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, cell("A", row), cell("H", row), bold); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(sheetName, "B", "E", 22); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write manifest %s workbook: %w", m.ManifestNumber, err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	return f.SetSheetRow(sheetName, cell("A", row), &values)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
