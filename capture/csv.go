package capture

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// ReadMarkerCSV reads a table with one row per frame and <marker>_X, _Y, _Z columns for every marker.
// Other columns are ignored.
func ReadMarkerCSV(r io.Reader, markers []string) (*MarkerRecording, error) {
	fields := MarkerFields(markers)
	rows, schema, err := readTable(r, fields)
	if err != nil {
		return nil, err
	}
	frames := make([][]r3.Vector, len(rows))
	for f, row := range rows {
		frames[f] = make([]r3.Vector, len(markers))
		for m := range markers {
			v, err := vectorAt(row, schema, fields[3*m:3*m+3], f)
			if err != nil {
				return nil, err
			}
			frames[f][m] = v
		}
	}
	return NewMarkerRecording(markers, frames)
}

// ReadSensorCSV reads a table with one row per frame and, for every segment,
// <segment>_qw, _qx, _qy, _qz orientation columns and <segment>_X, _Y, _Z position columns.
func ReadSensorCSV(r io.Reader, segments []string) (*SensorRecording, error) {
	fields := SensorFields(segments)
	rows, schema, err := readTable(r, fields)
	if err != nil {
		return nil, err
	}
	orientations := make([][]quat.Number, len(rows))
	positions := make([][]r3.Vector, len(rows))
	for f, row := range rows {
		orientations[f] = make([]quat.Number, len(segments))
		positions[f] = make([]r3.Vector, len(segments))
		for s := range segments {
			segFields := fields[7*s : 7*s+7]
			var q [4]float64
			for c := 0; c < 4; c++ {
				v, err := cellAt(row, schema.Column(segFields[c]), f)
				if err != nil {
					return nil, err
				}
				q[c] = v
			}
			orientations[f][s] = quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
			p, err := vectorAt(row, schema, segFields[4:7], f)
			if err != nil {
				return nil, err
			}
			positions[f][s] = p
		}
	}
	return NewSensorRecording(segments, orientations, positions)
}

// LoadMarkerFile reads a marker CSV from disk.
func LoadMarkerFile(path string, markers []string) (*MarkerRecording, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open marker recording")
	}
	defer func() {
		//nolint:errcheck,gosec
		f.Close()
	}()
	rec, err := ReadMarkerCSV(f, markers)
	return rec, errors.Wrapf(err, "marker recording %q", path)
}

// LoadSensorFile reads a sensor CSV from disk.
func LoadSensorFile(path string, segments []string) (*SensorRecording, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sensor recording")
	}
	defer func() {
		//nolint:errcheck,gosec
		f.Close()
	}()
	rec, err := ReadSensorCSV(f, segments)
	return rec, errors.Wrapf(err, "sensor recording %q", path)
}

func readTable(r io.Reader, fields []Field) ([][]string, *Schema, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read header")
	}
	schema, err := NewSchema(header, fields)
	if err != nil {
		return nil, nil, err
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read rows")
	}
	return rows, schema, nil
}

func vectorAt(row []string, schema *Schema, fields []Field, frame int) (r3.Vector, error) {
	var v [3]float64
	for c := 0; c < 3; c++ {
		x, err := cellAt(row, schema.Column(fields[c]), frame)
		if err != nil {
			return r3.Vector{}, err
		}
		v[c] = x
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// cellAt parses one cell. Empty cells and "nan" read as NaN.
func cellAt(row []string, col, frame int) (float64, error) {
	if col >= len(row) {
		return 0, errors.Errorf("frame %d is missing column %d", frame, col)
	}
	cell := strings.TrimSpace(row[col])
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.Errorf("frame %d column %d: %q is not a number", frame, col, cell)
	}
	return v, nil
}
