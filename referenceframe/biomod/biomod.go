// Package biomod reads, patches and writes *.bioMod skeletal model files.
package biomod

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/trampolinelab/acrokin/spatialmath"
)

// Extension is the file extension associated with bioMod files.
const Extension string = "bioMod"

// Segment is a segment block of a bioMod file.
type Segment struct {
	Name         string
	Parent       string
	RT           mgl64.Mat4
	HasRT        bool
	Inline       bool
	Translations string
	Rotations    string

	line           int
	rtStart        int
	rtEnd          int
	rtInMatrixLine int
	dirty          bool
}

// Marker is a marker block of a bioMod file.
type Marker struct {
	Name     string
	Parent   string
	Position r3.Vector

	line int
}

// Document is a parsed bioMod file. Lines that are not touched by SetRT are written back verbatim.
type Document struct {
	Version  string
	Segments []*Segment
	Markers  []*Marker

	lines           []string
	trailingNewline bool
	byName          map[string]*Segment
}

// ParseFile reads and parses the bioMod file at path.
func ParseFile(path string) (*Document, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bioMod file")
	}
	defer func() {
		//nolint:errcheck,gosec
		f.Close()
	}()
	return Parse(f)
}

// Parse reads a bioMod document.
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read bioMod")
	}
	doc := &Document{byName: map[string]*Segment{}}
	text := string(raw)
	if strings.HasSuffix(text, "\n") {
		doc.trailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}
	if text != "" {
		doc.lines = strings.Split(text, "\n")
	}
	p := &parser{doc: doc, tokens: tokenize(doc.lines)}
	if err := p.run(); err != nil {
		return nil, err
	}
	return doc, nil
}

// tokenize splits every line into whitespace separated fields, dropping // and /* */ comments.
func tokenize(lines []string) [][]string {
	out := make([][]string, len(lines))
	inBlock := false
	for i, line := range lines {
		var b strings.Builder
		for j := 0; j < len(line); j++ {
			if inBlock {
				if strings.HasPrefix(line[j:], "*/") {
					inBlock = false
					j++
				}
				continue
			}
			if strings.HasPrefix(line[j:], "//") {
				break
			}
			if strings.HasPrefix(line[j:], "/*") {
				inBlock = true
				j++
				b.WriteByte(' ')
				continue
			}
			b.WriteByte(line[j])
		}
		out[i] = strings.Fields(b.String())
	}
	return out
}

type parser struct {
	doc    *Document
	tokens [][]string
	pos    int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Errorf(format, args...), "bioMod line %d", p.pos+1)
}

func (p *parser) run() error {
	for ; p.pos < len(p.tokens); p.pos++ {
		toks := p.tokens[p.pos]
		if len(toks) == 0 {
			continue
		}
		switch strings.ToLower(toks[0]) {
		case "version":
			if len(toks) > 1 {
				p.doc.Version = toks[1]
			}
		case "segment":
			if err := p.segment(); err != nil {
				return err
			}
		case "marker":
			if err := p.marker(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) segment() error {
	toks := p.tokens[p.pos]
	if len(toks) < 2 {
		return p.errorf("segment without a name")
	}
	seg := &Segment{Name: toks[1], line: p.pos, rtStart: -1, rtEnd: -1, rtInMatrixLine: -1, RT: mgl64.Ident4()}
	if _, ok := p.doc.byName[seg.Name]; ok {
		return p.errorf("segment %q defined twice", seg.Name)
	}
	rtInMatrix := -1
	for p.pos++; p.pos < len(p.tokens); p.pos++ {
		toks := p.tokens[p.pos]
		if len(toks) == 0 {
			continue
		}
		switch strings.ToLower(toks[0]) {
		case "endsegment":
			p.doc.Segments = append(p.doc.Segments, seg)
			p.doc.byName[seg.Name] = seg
			return nil
		case "parent":
			if len(toks) < 2 {
				return p.errorf("parent without a name in segment %q", seg.Name)
			}
			seg.Parent = toks[1]
		case "translations":
			if len(toks) > 1 {
				seg.Translations = strings.ToLower(toks[1])
			}
		case "rotations":
			if len(toks) > 1 {
				seg.Rotations = strings.ToLower(toks[1])
			}
		case "rtinmatrix":
			if len(toks) < 2 {
				return p.errorf("rtinmatrix without a value in segment %q", seg.Name)
			}
			v, err := strconv.Atoi(toks[1])
			if err != nil {
				return p.errorf("invalid rtinmatrix value %q", toks[1])
			}
			rtInMatrix = v
			seg.rtInMatrixLine = p.pos
		case "rt":
			var err error
			if rtInMatrix == 0 {
				err = p.inlineRT(seg, toks[1:])
			} else {
				err = p.matrixRT(seg, toks[1:])
			}
			if err != nil {
				return err
			}
		}
	}
	return p.errorf("segment %q is missing endsegment", seg.Name)
}

// inlineRT reads "rt rx ry rz sequence tx ty tz".
func (p *parser) inlineRT(seg *Segment, args []string) error {
	if len(args) != 7 {
		return p.errorf("inline rt of segment %q needs 7 values, got %d", seg.Name, len(args))
	}
	vals, err := parseFloats(append(append([]string{}, args[0:3]...), args[4:7]...))
	if err != nil {
		return p.errorf("inline rt of segment %q: %v", seg.Name, err)
	}
	seq, err := spatialmath.ParseEulerSequence(args[3])
	if err != nil {
		return p.errorf("inline rt of segment %q: %v", seg.Name, err)
	}
	rot, err := spatialmath.EulerToRotationMatrix(vals[0:3], seq)
	if err != nil {
		return p.errorf("inline rt of segment %q: %v", seg.Name, err)
	}
	seg.RT = rot.Homogeneous(r3.Vector{X: vals[3], Y: vals[4], Z: vals[5]})
	seg.HasRT = true
	seg.Inline = true
	seg.rtStart, seg.rtEnd = p.pos, p.pos
	return nil
}

// matrixRT reads the 16 values of a row major 4x4 matrix following the rt keyword,
// usually laid out as four lines of four values.
func (p *parser) matrixRT(seg *Segment, rest []string) error {
	seg.rtStart = p.pos
	vals := make([]string, 0, 16)
	vals = append(vals, rest...)
	for len(vals) < 16 {
		p.pos++
		if p.pos >= len(p.tokens) {
			return p.errorf("rt matrix of segment %q is truncated", seg.Name)
		}
		vals = append(vals, p.tokens[p.pos]...)
	}
	if len(vals) != 16 {
		return p.errorf("rt matrix of segment %q has %d values, need 16", seg.Name, len(vals))
	}
	nums, err := parseFloats(vals)
	if err != nil {
		return p.errorf("rt matrix of segment %q: %v", seg.Name, err)
	}
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, nums[4*r+c])
		}
	}
	seg.RT = m
	seg.HasRT = true
	seg.rtEnd = p.pos
	return nil
}

func (p *parser) marker() error {
	toks := p.tokens[p.pos]
	if len(toks) < 2 {
		return p.errorf("marker without a name")
	}
	mk := &Marker{Name: toks[1], line: p.pos}
	for p.pos++; p.pos < len(p.tokens); p.pos++ {
		toks := p.tokens[p.pos]
		if len(toks) == 0 {
			continue
		}
		switch strings.ToLower(toks[0]) {
		case "endmarker":
			if mk.Parent == "" {
				return p.errorf("marker %q has no parent", mk.Name)
			}
			p.doc.Markers = append(p.doc.Markers, mk)
			return nil
		case "parent":
			if len(toks) < 2 {
				return p.errorf("parent without a name in marker %q", mk.Name)
			}
			mk.Parent = toks[1]
		case "position":
			vals, err := parseFloats(toks[1:])
			if err != nil || len(vals) != 3 {
				return p.errorf("marker %q needs a position of 3 numbers", mk.Name)
			}
			mk.Position = r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}
		}
	}
	return p.errorf("marker %q is missing endmarker", mk.Name)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Errorf("%q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}

// Segment returns the named segment.
func (d *Document) Segment(name string) (*Segment, bool) {
	s, ok := d.byName[name]
	return s, ok
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	//nolint:errcheck
	d.WriteTo(&buf)
	return buf.Bytes()
}
