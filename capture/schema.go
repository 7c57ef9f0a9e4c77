package capture

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// Field identifies one scalar column of a recording: a marker or segment name and a component.
type Field struct {
	Name      string
	Component string
}

// Column is the header text the field is stored under.
func (f Field) Column() string {
	return f.Name + "_" + f.Component
}

// Components of marker and sensor fields.
var (
	PositionComponents   = []string{"X", "Y", "Z"}
	QuaternionComponents = []string{"qw", "qx", "qy", "qz"}
)

// MarkerFields lists the position columns of every marker.
func MarkerFields(markers []string) []Field {
	out := make([]Field, 0, 3*len(markers))
	for _, m := range markers {
		for _, c := range PositionComponents {
			out = append(out, Field{Name: m, Component: c})
		}
	}
	return out
}

// SensorFields lists the quaternion and position columns of every segment.
func SensorFields(segments []string) []Field {
	out := make([]Field, 0, 7*len(segments))
	for _, s := range segments {
		for _, c := range QuaternionComponents {
			out = append(out, Field{Name: s, Component: c})
		}
		for _, c := range PositionComponents {
			out = append(out, Field{Name: s, Component: c})
		}
	}
	return out
}

// Schema maps every expected field to its column in a table. It is built and validated once, before any row is read.
type Schema struct {
	columns map[Field]int
}

// NewSchema resolves fields against a header row. Column names are compared case-insensitively.
// Every missing field is reported, as is any duplicated header.
func NewSchema(header []string, fields []Field) (*Schema, error) {
	normalized := lo.Map(header, func(h string, _ int) string {
		return strings.ToLower(strings.TrimSpace(h))
	})
	if dups := lo.FindDuplicates(normalized); len(dups) > 0 {
		return nil, errors.Errorf("duplicate columns in header: %v", dups)
	}
	byName := make(map[string]int, len(normalized))
	for i, h := range normalized {
		byName[h] = i
	}
	s := &Schema{columns: make(map[Field]int, len(fields))}
	var errs error
	for _, f := range fields {
		col, ok := byName[strings.ToLower(f.Column())]
		if !ok {
			errs = multierr.Append(errs, NewMissingColumnError(f))
			continue
		}
		s.columns[f] = col
	}
	if errs != nil {
		return nil, errs
	}
	return s, nil
}

// Column returns the column index of f. It panics for a field the schema was not built with.
func (s *Schema) Column(f Field) int {
	col, ok := s.columns[f]
	if !ok {
		panic(errors.Errorf("field %s is not part of the schema", f.Column()))
	}
	return col
}

// NewMissingColumnError is returned when an expected column is absent from a recording.
func NewMissingColumnError(f Field) error {
	return errors.Errorf("missing column %q", f.Column())
}
