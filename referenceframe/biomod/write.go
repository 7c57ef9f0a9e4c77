package biomod

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/trampolinelab/acrokin/referenceframe"
)

// SetRT replaces the rest transform of the named segment. Only the lines holding the transform change
// when the document is written; an inline transform is rewritten in matrix form.
func (d *Document) SetRT(name string, rt mgl64.Mat4) error {
	seg, ok := d.byName[name]
	if !ok {
		return referenceframe.NewSegmentNotFoundError(name)
	}
	seg.RT = rt
	seg.dirty = true
	return nil
}

// SetRestTransforms writes the rest transform of every segment of the reference pose into the document.
func (d *Document) SetRestTransforms(ref *referenceframe.ReferencePose) error {
	tree := ref.Tree()
	for i, rt := range ref.RestTransforms() {
		if err := d.SetRT(tree.Segment(i).Name, rt); err != nil {
			return errors.Wrap(err, "failed to patch bioMod")
		}
	}
	return nil
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create bioMod file")
	}
	if _, err := d.WriteTo(f); err != nil {
		//nolint:errcheck,gosec
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	replace := map[int][]string{}
	skip := map[int]bool{}
	for _, seg := range d.Segments {
		if !seg.dirty {
			continue
		}
		d.planRT(seg, replace, skip)
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	first := true
	emit := func(line string) {
		if !first {
			cw.writeString("\n")
		}
		first = false
		cw.writeString(line)
	}
	for i, line := range d.lines {
		if rep, ok := replace[i]; ok {
			for _, r := range rep {
				emit(r)
			}
		}
		if skip[i] {
			continue
		}
		emit(line)
	}
	if d.trailingNewline {
		cw.writeString("\n")
	}
	if cw.err != nil {
		return cw.n, errors.Wrap(cw.err, "failed to write bioMod")
	}
	return cw.n, errors.Wrap(cw.w.Flush(), "failed to write bioMod")
}

// planRT records which lines to drop and what to write in their place for a modified segment.
func (d *Document) planRT(seg *Segment, replace map[int][]string, skip map[int]bool) {
	indent := "\t"
	rtKeyword := "RT"
	switch {
	case seg.HasRT:
		indent = leadingSpace(d.lines[seg.rtStart])
		rtKeyword = strings.Fields(d.lines[seg.rtStart])[0]
		for i := seg.rtStart; i <= seg.rtEnd; i++ {
			skip[i] = true
		}
		replace[seg.rtStart] = append([]string{indent + rtKeyword}, formatRT(seg.RT)...)
	default:
		// insert right after the segment header, or after rtinmatrix when present
		at := seg.line + 1
		if seg.rtInMatrixLine >= at {
			at = seg.rtInMatrixLine + 1
		}
		replace[at] = append(replace[at], append([]string{indent + rtKeyword}, formatRT(seg.RT)...)...)
	}
	if seg.rtInMatrixLine >= 0 && (seg.Inline || !seg.HasRT) {
		l := d.lines[seg.rtInMatrixLine]
		replace[seg.rtInMatrixLine] = []string{leadingSpace(l) + strings.Fields(l)[0] + "\t1"}
		skip[seg.rtInMatrixLine] = true
	}
}

// formatRT writes the four rows of a rest transform.
func formatRT(m mgl64.Mat4) []string {
	rows := make([]string, 4)
	for r := 0; r < 4; r++ {
		vals := make([]string, 4)
		for c := 0; c < 4; c++ {
			vals[c] = fmt.Sprintf("%.10f", m.At(r, c))
		}
		rows[r] = "\t\t\t" + strings.Join(vals, "\t")
	}
	return rows
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) writeString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	c.err = err
}
