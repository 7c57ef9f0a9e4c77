package data

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestQCSVRoundTrip(t *testing.T) {
	q := mat.NewDense(2, 3, []float64{
		0.1, 0.2, math.NaN(),
		-1, 0, 1.5,
	})
	labels := []string{"Pelvis_RotX", "Thorax_RotZ"}

	var buf bytes.Buffer
	test.That(t, WriteQCSV(&buf, labels, q), test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.That(t, lines, test.ShouldResemble, []string{
		"frame,Pelvis_RotX,Thorax_RotZ",
		"0,0.1,-1",
		"1,0.2,0",
		"2,nan,1.5",
	})

	gotLabels, got, err := ReadQCSV(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotLabels, test.ShouldResemble, labels)
	test.That(t, got.At(1, 2), test.ShouldEqual, 1.5)
	test.That(t, math.IsNaN(got.At(0, 2)), test.ShouldBeTrue)

	test.That(t, WriteQCSV(&buf, labels[:1], q), test.ShouldNotBeNil)
}

func TestReadQCSVErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"frame,a\n",
		"time,a\n0,1\n",
		"frame,a\n0,x\n",
	} {
		_, _, err := ReadQCSV(strings.NewReader(in))
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestWriteQFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "q.csv")
	n, err := WriteQFile(path, []string{"a"}, mat.NewDense(1, 2, []float64{1, 2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, int64(len("frame,a\n0,1\n1,2\n")))
}
