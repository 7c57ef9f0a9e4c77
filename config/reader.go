package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Read reads a config from the given file. Environment variables written as ${NAME} are expanded first.
func Read(filePath string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*Config, error) {
	cfg := &Config{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath

	if err := cfg.Validate("subject"); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("config loaded",
			"subject", cfg.Subject,
			"source", cfg.Source,
			"trials", len(cfg.Trials),
			"path", originalPath,
		)
	}
	return cfg, nil
}
