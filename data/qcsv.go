package data

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// WriteQCSV writes one row per frame with a header made of frame and the labels. NaN is written as "nan".
func WriteQCSV(w io.Writer, labels []string, q mat.Matrix) error {
	rows, cols := q.Dims()
	if rows != len(labels) {
		return errors.Errorf("have %d labels for %d coordinates", len(labels), rows)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"frame"}, labels...)); err != nil {
		return err
	}
	record := make([]string, rows+1)
	for f := 0; f < cols; f++ {
		record[0] = strconv.Itoa(f)
		for r := 0; r < rows; r++ {
			v := q.At(r, f)
			if math.IsNaN(v) {
				record[r+1] = "nan"
				continue
			}
			record[r+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadQCSV reads a file written by WriteQCSV back into labels and a coordinates by frames matrix.
func ReadQCSV(r io.Reader) ([]string, *mat.Dense, error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, nil, errors.New("coordinate file has no frames")
	}
	header := all[0]
	if len(header) < 2 || header[0] != "frame" {
		return nil, nil, errors.New("coordinate file header must start with frame")
	}
	labels := append([]string(nil), header[1:]...)
	q := mat.NewDense(len(labels), len(all)-1, nil)
	for f, row := range all[1:] {
		for i := range labels {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "frame %d column %q", f, labels[i])
			}
			q.Set(i, f, v)
		}
	}
	return labels, q, nil
}

// WriteQFile writes q to path and returns the file size.
func WriteQFile(path string, labels []string, q mat.Matrix) (int64, error) {
	return WriteFile(path, func(w io.Writer) error {
		return WriteQCSV(w, labels, q)
	})
}
