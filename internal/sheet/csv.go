package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/meltforce/liftbot/internal/storage"
)

// ReadCSV parses a CSV export. The first line must be a header; column order
// is free and unknown columns are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	index := headerIndex(header)
	if _, ok := index["exercise"]; !ok {
		return nil, fmt.Errorf("csv header has no Exercise column")
	}

	var rows []Row
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		rows = append(rows, rowFromCells(index, cells))
	}
	return rows, nil
}

// WriteCSV writes the training log with the canonical header.
func WriteCSV(w io.Writer, rows []storage.TrainingRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(formatRow(r)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatRow(r storage.TrainingRow) []string {
	var rir, note string
	if r.RIR != nil {
		rir = strconv.FormatFloat(*r.RIR, 'g', -1, 64)
	}
	if r.Note != nil {
		note = *r.Note
	}
	return []string{
		r.Date.Format("2006-01-02"),
		r.Workout,
		r.Exercise,
		strconv.Itoa(r.SetIndex),
		strconv.Itoa(r.Reps),
		strconv.FormatFloat(r.Weight, 'g', -1, 64),
		rir,
		note,
	}
}
