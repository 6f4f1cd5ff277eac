package sheet

import (
	"fmt"
	"io"

	"github.com/meltforce/liftbot/internal/storage"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Training"

// ReadXLSX parses the first worksheet of an XLSX workbook using the same
// header rules as ReadCSV.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	index := headerIndex(lines[0])
	if _, ok := index["exercise"]; !ok {
		return nil, fmt.Errorf("sheet header has no Exercise column")
	}

	var rows []Row
	for _, cells := range lines[1:] {
		rows = append(rows, rowFromCells(index, cells))
	}
	return rows, nil
}

// WriteXLSX writes the training log as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []storage.TrainingRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range rows {
		cells := formatRow(r)
		line := make([]interface{}, len(cells))
		for j, c := range cells {
			line[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
