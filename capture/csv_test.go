package capture

import (
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestSchema(t *testing.T) {
	header := []string{"frame", "A_X", "A_Y", "a_z", "B_X"}
	schema, err := NewSchema(header, MarkerFields([]string{"A"}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, schema.Column(Field{Name: "A", Component: "Z"}), test.ShouldEqual, 3)

	_, err = NewSchema(header, MarkerFields([]string{"A", "B"}))
	test.That(t, err, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	test.That(t, len(errs), test.ShouldEqual, 2)
	test.That(t, errs[0].Error(), test.ShouldContainSubstring, "B_Y")
	test.That(t, errs[1].Error(), test.ShouldContainSubstring, "B_Z")

	_, err = NewSchema([]string{"A_X", "a_x"}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")

	test.That(t, func() { schema.Column(Field{Name: "C", Component: "X"}) }, test.ShouldPanic)
}

func TestReadMarkerCSV(t *testing.T) {
	data := "frame,M1_X,M1_Y,M1_Z,M2_X,M2_Y,M2_Z\n" +
		"0,1,2,3,4,5,6\n" +
		"1,1.5,2.5,3.5,NaN,,nan\n"
	rec, err := ReadMarkerCSV(strings.NewReader(data), []string{"M2", "M1"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.NumFrames(), test.ShouldEqual, 2)
	test.That(t, rec.Source(), test.ShouldEqual, SourceMarker)
	test.That(t, rec.Frames[0][0], test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, rec.Frames[1][1], test.ShouldResemble, r3.Vector{X: 1.5, Y: 2.5, Z: 3.5})
	test.That(t, math.IsNaN(rec.Frames[1][0].X), test.ShouldBeTrue)
	test.That(t, math.IsNaN(rec.Frames[1][0].Y), test.ShouldBeTrue)
	idx, ok := rec.MarkerIndex("M1")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 1)

	_, err = ReadMarkerCSV(strings.NewReader(data), []string{"M3"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "M3_X")

	_, err = ReadMarkerCSV(strings.NewReader("M1_X,M1_Y,M1_Z\n1,two,3\n"), []string{"M1"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadMarkerCSV(strings.NewReader(""), []string{"M1"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadMarkerFile("does/not/exist.csv", []string{"M1"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadSensorCSV(t *testing.T) {
	data := "Pelvis_qw,Pelvis_qx,Pelvis_qy,Pelvis_qz,Pelvis_X,Pelvis_Y,Pelvis_Z\n" +
		"1,0,0,0,0.1,0.2,1.0\n" +
		"0.5,0.5,0.5,0.5,0.1,0.2,1.1\n"
	rec, err := ReadSensorCSV(strings.NewReader(data), []string{"Pelvis"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rec.NumFrames(), test.ShouldEqual, 2)
	test.That(t, rec.Source(), test.ShouldEqual, SourceSensor)
	test.That(t, rec.Orientations[1][0], test.ShouldResemble, quat.Number{Real: 0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5})
	test.That(t, rec.Positions[1][0], test.ShouldResemble, r3.Vector{X: 0.1, Y: 0.2, Z: 1.1})

	_, err = ReadSensorCSV(strings.NewReader(data), []string{"Head"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntervalAndSource(t *testing.T) {
	iv, err := Interval{Start: 2}.Resolve(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, iv, test.ShouldResemble, Interval{Start: 2, End: 10})
	test.That(t, iv.Len(), test.ShouldEqual, 8)

	for _, bad := range []Interval{{Start: -1, End: 3}, {Start: 4, End: 4}, {Start: 0, End: 11}, {Start: 10}} {
		_, err := bad.Resolve(10)
		test.That(t, err, test.ShouldNotBeNil)
	}

	src, err := ParseSource("sensor")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.String(), test.ShouldEqual, "sensor")
	_, err = ParseSource("c3d")
	test.That(t, err, test.ShouldNotBeNil)
}
