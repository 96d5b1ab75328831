// Package config reads the settings of the domedit command from a YAML
// file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rjkroege/domedit/textcheck"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by the errors Validate returns.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// UndoLimit is how many entries the undo stack keeps; 0 keeps all.
	UndoLimit int `yaml:"undo_limit"`

	// CheckDelay is how long the text around an edit waits before it
	// is checked.
	CheckDelay  time.Duration `yaml:"check_delay"`
	Spelling    bool          `yaml:"spelling"`
	Grammar     bool          `yaml:"grammar"`
	AutoCorrect bool          `yaml:"autocorrect"`

	// Placeholder is the single character that stands for an image or
	// other replaced element in flattened text. Empty means U+FFFC.
	Placeholder string `yaml:"placeholder"`

	// Service is the name the file server is posted under.
	Service string `yaml:"service"`

	// WordList names a file read by textcheck.ReadWordList.
	WordList string `yaml:"word_list"`

	// Checker is a spelling process and its arguments. It takes
	// precedence over WordList.
	Checker []string `yaml:"checker"`
}

// Default returns the settings used where a file says nothing.
func Default() *Config {
	return &Config{
		UndoLimit:  100,
		CheckDelay: 300 * time.Millisecond,
		Spelling:   true,
		Service:    "domedit",
	}
}

// Load reads the file at path over the defaults. An empty path gives
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML over the defaults. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.UndoLimit < 0:
		return fmt.Errorf("%w: negative undo_limit %d", ErrInvalid, c.UndoLimit)
	case c.CheckDelay < 0:
		return fmt.Errorf("%w: negative check_delay %v", ErrInvalid, c.CheckDelay)
	case utf8.RuneCountInString(c.Placeholder) > 1:
		return fmt.Errorf("%w: placeholder %q is more than one character", ErrInvalid, c.Placeholder)
	case c.Service == "":
		return fmt.Errorf("%w: empty service name", ErrInvalid)
	}
	return nil
}

// PlaceholderRune returns the placeholder character, or 0 for the
// default.
func (c *Config) PlaceholderRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Placeholder)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// Kinds returns what checks should look for. Autocorrection needs
// replacement results, which the editor asks for itself.
func (c *Config) Kinds() textcheck.Kind {
	var k textcheck.Kind
	if c.Spelling {
		k |= textcheck.Spelling
	}
	if c.Grammar {
		k |= textcheck.Grammar
	}
	return k
}
