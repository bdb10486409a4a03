package types

import "errors"

// Config holds the parameters for Backend.Attach.
type Config struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
	Author  string `json:"author" yaml:"author"`
}

// DefaultAuthor is the label stamped on history entries when the config
// does not name one.
const DefaultAuthor = "manifest"

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data directory must not be empty")
)

// Validate checks that the Config is well-formed and applies the default
// author label.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Author == "" {
		c.Author = DefaultAuthor
	}
	return nil
}
