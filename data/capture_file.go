package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// InProgressFileExt marks an output file that is still being written.
	InProgressFileExt = ".prog"
	// RecordFileExt is the extension of trial record files.
	RecordFileExt = ".json"
	// QFileExt is the extension of generalized coordinate exports.
	QFileExt = ".csv"
	// Non-exhaustive list of characters to strip from file names, since not allowed
	// on certain file systems.
	filePathReservedChars = ":/\\"
)

// FileNameWithReplacedReservedChars returns name with substitutions for reserved characters.
func FileNameWithReplacedReservedChars(name string) string {
	for _, c := range filePathReservedChars {
		name = strings.ReplaceAll(name, string(c), "_")
	}
	return name
}

// OutputPath is where the output of a trial goes: <dir>/<subject>/<trial><suffix><ext>.
func OutputPath(dir, subject, trial, suffix, ext string) string {
	return filepath.Join(dir, FileNameWithReplacedReservedChars(subject),
		fmt.Sprintf("%s%s%s", FileNameWithReplacedReservedChars(trial), suffix, ext))
}

// WriteFile writes path through an in-progress sibling that is renamed into place once write
// returns without error. It returns the number of bytes written.
func WriteFile(path string, write func(w io.Writer) error) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, err
	}
	progPath := path + InProgressFileExt
	//nolint:gosec
	f, err := os.Create(progPath)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: f}
	if err := write(cw); err != nil {
		//nolint:errcheck,gosec
		f.Close()
		//nolint:errcheck,gosec
		os.Remove(progPath)
		return 0, errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(progPath, path); err != nil {
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
