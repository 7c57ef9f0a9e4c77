// Package analysis runs the whole processing of a subject: the relax trial gives the reference pose,
// then every movement trial is turned into generalized coordinates and the configured exports.
package analysis

import (
	"context"
	"io"
	"math"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/trampolinelab/acrokin/capture"
	"github.com/trampolinelab/acrokin/config"
	"github.com/trampolinelab/acrokin/data"
	"github.com/trampolinelab/acrokin/kinematics"
	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/referenceframe/biomod"
	"github.com/trampolinelab/acrokin/spatialmath"
	"github.com/trampolinelab/acrokin/utils"
)

// Output suffixes appended to the trial name.
const (
	QSuffix      = "_Q"
	KalmanSuffix = "_Q_kalman"
	RMSDSuffix   = "_rmsd"
	RecordSuffix = "_record"
)

// Output is one file written for a trial.
type Output struct {
	Path string
	Size int64
}

// TrialResult summarizes the processing of one movement trial.
type TrialResult struct {
	Trial     string
	Frames    int
	DoF       int
	Undefined int
	// KalmanSkipped and MeanRMSD are only set when the marker reconstruction ran.
	KalmanSkipped int
	MeanRMSD      float64
	Outputs       []Output
	Duration      time.Duration
}

// Session holds everything shared by the trials of a subject. After Calibrate it is read-only and
// ProcessTrial may be called concurrently.
type Session struct {
	cfg       *config.Config
	tree      *referenceframe.Tree
	doc       *biomod.Document
	layout    referenceframe.MarkerLayout
	markers   []string
	policy    kinematics.DoFPolicy
	method    spatialmath.MeanMethod
	validator *spatialmath.Validator
	logger    golog.Logger

	ref   *referenceframe.ReferencePose
	model *referenceframe.Model
}

// NewSession resolves the segment tree, the model and the policies of cfg.
func NewSession(cfg *config.Config, strict bool, logger golog.Logger) (*Session, error) {
	if logger == nil {
		logger = golog.NewLogger("analysis")
	}
	s := &Session{cfg: cfg, logger: logger}

	if cfg.Model != "" {
		doc, err := biomod.ParseFile(cfg.ResolvePath(cfg.Model))
		if err != nil {
			return nil, err
		}
		s.doc = doc
		s.layout = doc.MarkerLayout()
	}

	var err error
	if cfg.TreeFromModel() {
		s.tree, err = s.doc.Tree(cfg.Subject)
	} else {
		s.tree, err = cfg.Tree()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build segment tree")
	}

	if cfg.SourceKind() == capture.SourceMarker {
		for _, seg := range s.tree.Names() {
			for _, m := range s.layout[seg] {
				s.markers = append(s.markers, m.Name)
			}
		}
	}

	if cfg.DoF != nil {
		s.policy = *cfg.DoF
	} else {
		s.policy = kinematics.DefaultDoFPolicy(s.tree)
	}
	if err := s.policy.Validate(s.tree); err != nil {
		return nil, errors.Wrap(err, "invalid degree of freedom policy")
	}

	s.method, err = spatialmath.ParseMeanMethod(cfg.Averaging)
	if err != nil {
		return nil, err
	}
	s.validator = spatialmath.NewValidator(cfg.ValidationMode(strict), logger.Named("validator"))
	return s, nil
}

// Tree is the segment tree of the session.
func (s *Session) Tree() *referenceframe.Tree {
	return s.tree
}

// Reference is the reference pose measured by Calibrate, nil before.
func (s *Session) Reference() *referenceframe.ReferencePose {
	return s.ref
}

func (s *Session) extract(tc config.TrialConfig) (*referenceframe.FrameSequence, capture.Recording, error) {
	path := s.cfg.ResolvePath(tc.Path)
	var rec capture.Recording
	var err error
	switch s.cfg.SourceKind() {
	case capture.SourceSensor:
		rec, err = capture.LoadSensorFile(path, s.tree.Names())
	default:
		rec, err = capture.LoadMarkerFile(path, s.markers)
	}
	if err != nil {
		return nil, nil, err
	}
	fs, err := capture.ExtractFrames(rec, s.tree, s.layout, tc.Interval(), capture.Options{YUp: s.cfg.YUp})
	if err != nil {
		return nil, nil, err
	}
	return fs, rec, nil
}

// Calibrate averages the relax trial into the reference pose. When the session has a model its rest
// transforms are replaced by the measured ones, and the patched model is written if configured.
func (s *Session) Calibrate(ctx context.Context) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs, _, err := s.extract(s.cfg.Relax)
	if err != nil {
		return nil, errors.Wrapf(err, "relax trial %q", s.cfg.Relax.Name)
	}
	if undefined := fs.UndefinedCount(); undefined > 0 {
		s.logger.Infow("relax trial has undefined poses", "trial", s.cfg.Relax.Name, "count", undefined)
	}
	ref, err := referenceframe.NewReferencePose(fs, s.method, s.validator)
	if err != nil {
		return nil, errors.Wrapf(err, "relax trial %q", s.cfg.Relax.Name)
	}
	s.ref = ref

	if s.doc == nil {
		return nil, nil
	}
	if err := s.doc.SetRestTransforms(ref); err != nil {
		return nil, err
	}
	if s.cfg.Kalman != nil {
		s.model, err = s.doc.Model(s.cfg.Subject)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build model from patched bioMod")
		}
	}
	if s.cfg.PatchedModel == "" {
		return nil, nil
	}
	out := s.cfg.ResolvePath(s.cfg.PatchedModel)
	size, err := data.WriteFile(out, func(w io.Writer) error {
		_, err := s.doc.WriteTo(w)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to write patched bioMod")
	}
	s.logger.Infow("patched model written", "path", out, "size", data.FormatBytesI64(size))
	return &Output{Path: out, Size: size}, nil
}

// ProcessTrial extracts the generalized coordinates of a movement trial and writes the configured
// exports. Calibrate must have succeeded first.
func (s *Session) ProcessTrial(ctx context.Context, tc config.TrialConfig) (*TrialResult, error) {
	if s.ref == nil {
		return nil, errors.New("session is not calibrated")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := s.logger.With("trial", tc.Name)

	fs, rec, err := s.extract(tc)
	if err != nil {
		return nil, err
	}
	q, err := kinematics.ExtractQ(s.ref, fs, s.policy, kinematics.ExtractOptions{
		IncludeRootTranslation: s.cfg.IncludeRootTranslation,
		Validator:              s.validator,
	}, logger)
	if err != nil {
		return nil, err
	}
	res := &TrialResult{Trial: tc.Name, Frames: q.NumFrames(), DoF: q.NumDoF(), Undefined: fs.UndefinedCount()}

	write := func(suffix, ext string, w func(path string) (int64, error)) error {
		path := data.OutputPath(s.cfg.ResolvePath(s.cfg.OutputDir), s.cfg.Subject, tc.Name, suffix, ext)
		size, err := w(path)
		if err != nil {
			return errors.Wrapf(err, "failed to write %q", path)
		}
		res.Outputs = append(res.Outputs, Output{Path: path, Size: size})
		return nil
	}

	if err := write(QSuffix, data.QFileExt, func(path string) (int64, error) {
		return data.WriteQFile(path, q.Labels(), q.Data)
	}); err != nil {
		return nil, err
	}

	if s.cfg.JointCenters != nil {
		record, err := s.trialRecord(tc, fs)
		if err != nil {
			return nil, err
		}
		if err := write(RecordSuffix, data.RecordFileExt, func(path string) (int64, error) {
			return data.WriteRecord(path, record)
		}); err != nil {
			return nil, err
		}
	}

	if s.model != nil {
		markerRec, ok := rec.(*capture.MarkerRecording)
		if !ok {
			return nil, errors.Errorf("kalman reconstruction needs a marker recording, got %s", rec.Source())
		}
		if err := s.reconstruct(ctx, tc, markerRec, res, write, logger); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	logger.Infow("trial processed", "frames", res.Frames, "dof", res.DoF, "duration", res.Duration)
	return res, nil
}

func (s *Session) reconstruct(
	ctx context.Context,
	tc config.TrialConfig,
	rec *capture.MarkerRecording,
	res *TrialResult,
	write func(suffix, ext string, w func(path string) (int64, error)) error,
	logger golog.Logger,
) error {
	clouds, err := capture.MarkerClouds(rec, s.model.MarkerNames(), tc.Interval(), capture.Options{YUp: s.cfg.YUp})
	if err != nil {
		return err
	}
	r, err := kinematics.NewReconstructor(s.model, *s.cfg.Kalman, nil, logger.Named("kalman"))
	if err != nil {
		return err
	}
	out, err := r.Reconstruct(ctx, clouds)
	if err != nil {
		return err
	}
	rmsd, err := kinematics.MarkerRMSD(s.model, out.Q, clouds)
	if err != nil {
		return err
	}
	res.KalmanSkipped = len(out.SkippedFrames)
	res.MeanRMSD = nanMean(rmsd)

	if err := write(KalmanSuffix, data.QFileExt, func(path string) (int64, error) {
		return data.WriteQFile(path, s.model.DoFNames(), out.Q)
	}); err != nil {
		return err
	}
	return write(RMSDSuffix, data.QFileExt, func(path string) (int64, error) {
		return data.WriteQFile(path, []string{"rmsd"}, mat.NewDense(1, len(rmsd), rmsd))
	})
}

func (s *Session) trialRecord(tc config.TrialConfig, fs *referenceframe.FrameSequence) (*data.TrialRecord, error) {
	opts := *s.cfg.JointCenters
	opts.Heading = utils.DegToRad(tc.Heading)
	jc, err := kinematics.JointCentersInRoot(fs, opts, s.validator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to express joint centers in the root frame")
	}
	pairs := s.cfg.SegmentLengths
	if len(pairs) == 0 {
		pairs = kinematics.DefaultSensorLengthPairs()
	}
	lengths, err := kinematics.MeanSegmentLengths(fs, pairs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to measure segment lengths")
	}

	record := &data.TrialRecord{
		Subject:        s.cfg.Subject,
		Trial:          tc.Name,
		Laterality:     s.cfg.Laterality,
		Expertise:      s.cfg.Expertise,
		JCOrder:        jc.Names,
		SegmentLengths: lengths,
		WallIndex:      tc.WallIndex,
	}
	for a, perJC := range jc.Components() {
		record.JointCenters[a] = make([]data.Series, len(perJC))
		for i, series := range perJC {
			record.JointCenters[a][i] = series
		}
	}
	if tc.Gaze != "" {
		gaze, err := readGaze(s.cfg.ResolvePath(tc.Gaze))
		if err != nil {
			return nil, err
		}
		record.Gaze = gaze
	}
	return record, nil
}

func readGaze(path string) ([]data.Series, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gaze file")
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	_, values, err := data.ReadQCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "gaze file %q", path)
	}
	rows, _ := values.Dims()
	out := make([]data.Series, rows)
	for i := range out {
		out[i] = mat.Row(nil, i, values)
	}
	return out, nil
}

// nanMean is the mean of the defined values, NaN when there are none.
func nanMean(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	return stat.Mean(defined, nil)
}
