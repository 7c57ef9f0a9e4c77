package data

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Series is a float series whose NaN samples are stored as JSON null.
type Series []float64

// MarshalJSON implements json.Marshaler.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Series) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(Series, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*s = out
	return nil
}

// TrialRecord is the per-trial export consumed by the statistics tooling.
type TrialRecord struct {
	Subject    string `json:"subject"`
	Trial      string `json:"trial"`
	Laterality string `json:"laterality,omitempty"`
	Expertise  string `json:"subject_expertise,omitempty"`
	// JointCenters is [axis][joint center][frame], in the root frame. The root entry holds angles.
	JointCenters [3][]Series `json:"jc_in_pelvis_frame"`
	JCOrder      []string    `json:"jc_order"`
	// SegmentLengths holds limb lengths, every odd entry including the preceding one.
	SegmentLengths Series   `json:"length_segment,omitempty"`
	WallIndex      []int    `json:"wall_index,omitempty"`
	Gaze           []Series `json:"gaze_position_temporal_evolution_projected,omitempty"`
}

// Validate checks that the joint center series agree with the order and with each other.
func (r *TrialRecord) Validate() error {
	frames := -1
	for axis, perJC := range r.JointCenters {
		if len(perJC) != len(r.JCOrder) {
			return errors.Errorf("axis %d has %d joint centers, order lists %d", axis, len(perJC), len(r.JCOrder))
		}
		for i, s := range perJC {
			if frames < 0 {
				frames = len(s)
			}
			if len(s) != frames {
				return errors.Errorf("joint center %q axis %d has %d frames, expected %d", r.JCOrder[i], axis, len(s), frames)
			}
		}
	}
	return nil
}

// NumFrames is the length of the joint center series.
func (r *TrialRecord) NumFrames() int {
	if len(r.JointCenters[0]) == 0 {
		return 0
	}
	return len(r.JointCenters[0][0])
}

// EncodeRecord writes rec as indented JSON.
func EncodeRecord(w io.Writer, rec *TrialRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// DecodeRecord reads a record written by EncodeRecord.
func DecodeRecord(r io.Reader) (*TrialRecord, error) {
	var rec TrialRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "failed to decode trial record")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// WriteRecord writes rec to path and returns the file size.
func WriteRecord(path string, rec *TrialRecord) (int64, error) {
	return WriteFile(path, func(w io.Writer) error {
		return EncodeRecord(w, rec)
	})
}

// ReadRecord reads the record at path.
func ReadRecord(path string) (*TrialRecord, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		//nolint:errcheck,gosec
		f.Close()
	}()
	return DecodeRecord(f)
}
