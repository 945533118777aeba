package export

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/sitetrack/internal/model"
)

// WriteProgress writes a progress workbook: one sheet per clickable
// layer listing every tracked feature and its completion status, a
// Notes sheet, and a Summary sheet with per-layer completion counts.
func WriteProgress(path string, labels []model.Label, completed map[string]bool, notes []model.Note) error {
	if len(labels) == 0 {
		return eris.New("export: no tracked features to export")
	}

	f := xlsx.NewFile()

	layerOrder, byLayer := groupByLayer(labels)
	for _, layer := range layerOrder {
		if err := writeLayerSheet(f, layer, byLayer[layer], completed); err != nil {
			return err
		}
	}
	if err := writeNotesSheet(f, notes); err != nil {
		return err
	}
	if err := writeSummarySheet(f, layerOrder, byLayer, completed); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// groupByLayer splits labels by layer, preserving first-seen order.
func groupByLayer(labels []model.Label) ([]string, map[string][]model.Label) {
	var order []string
	byLayer := make(map[string][]model.Label)
	for _, l := range labels {
		if _, ok := byLayer[l.Layer]; !ok {
			order = append(order, l.Layer)
		}
		byLayer[l.Layer] = append(byLayer[l.Layer], l)
	}
	return order, byLayer
}

func writeLayerSheet(f *xlsx.File, layer string, labels []model.Label, completed map[string]bool) error {
	sheet, err := f.AddSheet(layer)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", layer)
	}

	addRow(sheet, "ID", "Label", "Center X", "Center Y", "Area", "Large", "Done")
	for _, l := range labels {
		row := sheet.AddRow()
		row.AddCell().SetString(l.ID)
		row.AddCell().SetString(l.Text)
		row.AddCell().SetFloat(l.X)
		row.AddCell().SetFloat(l.Y)
		row.AddCell().SetFloat(l.Area)
		row.AddCell().SetBool(l.Large)
		row.AddCell().SetBool(completed[l.ID])
	}
	return nil
}

func writeNotesSheet(f *xlsx.File, notes []model.Note) error {
	sheet, err := f.AddSheet("Notes")
	if err != nil {
		return eris.Wrap(err, "export: add notes sheet")
	}

	sorted := make([]model.Note, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	addRow(sheet, "ID", "X", "Y", "Text")
	for _, n := range sorted {
		row := sheet.AddRow()
		row.AddCell().SetInt64(n.ID)
		row.AddCell().SetFloat(n.X)
		row.AddCell().SetFloat(n.Y)
		row.AddCell().SetString(n.Text)
	}
	return nil
}

func writeSummarySheet(f *xlsx.File, layerOrder []string, byLayer map[string][]model.Label, completed map[string]bool) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addRow(sheet, "Layer", "Total", "Done", "Percent")
	var total, done int
	for _, layer := range layerOrder {
		labels := byLayer[layer]
		layerDone := 0
		for _, l := range labels {
			if completed[l.ID] {
				layerDone++
			}
		}
		total += len(labels)
		done += layerDone

		row := sheet.AddRow()
		row.AddCell().SetString(layer)
		row.AddCell().SetInt(len(labels))
		row.AddCell().SetInt(layerDone)
		row.AddCell().SetString(percent(layerDone, len(labels)))
	}

	row := sheet.AddRow()
	row.AddCell().SetString("All")
	row.AddCell().SetInt(total)
	row.AddCell().SetInt(done)
	row.AddCell().SetString(percent(done, total))
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func percent(done, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(done)/float64(total))
}
