package lexicon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garyellow/companion-nlu-go/internal/r2client"
)

// Bundle is the YAML form of lexicon tables:
//
//	dates:
//	  tmrw: tomorrow
//	courses:
//	  orgo: Organic Chemistry
type Bundle struct {
	Dates       map[string]string `yaml:"dates,omitempty"`
	Times       map[string]string `yaml:"times,omitempty"`
	Assignments map[string]string `yaml:"assignments,omitempty"`
	Courses     map[string]string `yaml:"courses,omitempty"`
}

// Size returns the total number of entries.
func (b Bundle) Size() int {
	return len(b.Dates) + len(b.Times) + len(b.Assignments) + len(b.Courses)
}

// Validate rejects blank keys and values.
func (b Bundle) Validate() error {
	var errs []error
	for table, m := range map[string]map[string]string{
		"dates": b.Dates, "times": b.Times, "assignments": b.Assignments, "courses": b.Courses,
	} {
		for k, v := range m {
			if strings.TrimSpace(k) == "" {
				errs = append(errs, fmt.Errorf("%s: blank key", table))
			}
			if strings.TrimSpace(v) == "" {
				errs = append(errs, fmt.Errorf("%s: blank value for %q", table, k))
			}
		}
	}
	return errors.Join(errs...)
}

// ParseBundle decodes YAML. Unknown top-level keys are rejected.
func ParseBundle(data []byte) (Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return Bundle{}, fmt.Errorf("lexicon: parse bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Bundle{}, fmt.Errorf("lexicon: invalid bundle: %w", err)
	}
	return b, nil
}

// Encode renders the bundle as YAML.
func (b Bundle) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("lexicon: encode bundle: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("lexicon: encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// IsCompressed reports whether a path or object key names a zstd bundle.
func IsCompressed(name string) bool {
	return strings.HasSuffix(name, ".zst")
}

// Decode reads a bundle, decompressing it first when compressed is set.
func Decode(r io.Reader, compressed bool) (Bundle, error) {
	var (
		data []byte
		err  error
	)
	if compressed {
		data, err = r2client.Decompress(r)
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("lexicon: read bundle: %w", err)
	}
	return ParseBundle(data)
}

// LoadFile reads a bundle from disk; ".zst" files are decompressed.
func LoadFile(path string) (Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, IsCompressed(path))
}
