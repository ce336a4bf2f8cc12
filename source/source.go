// Package source decodes external representations into the plain
// map[string]any input that vmodel schemas validate.
//
// JSON is read token by token with goccy/go-json (numbers kept as
// json.Number so integers survive exactly); YAML is read with yaml.v3 and its
// mappings are normalized to string keys.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names a supported input representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for unknown format names or file extensions.
	ErrUnsupportedFormat = errors.New("source: unsupported format")
	// ErrNotObject is returned when the document root is not a mapping.
	ErrNotObject = errors.New("source: document root is not an object")
	// ErrDuplicateKey is returned by JSON decoding with RejectDuplicateKeys.
	ErrDuplicateKey = errors.New("source: duplicate key")
)

// Option configures decoding.
type Option func(*config)

type config struct {
	rejectDuplicates bool
}

// RejectDuplicateKeys makes JSON decoding fail on a repeated object key
// instead of keeping the last value. YAML always rejects duplicates.
func RejectDuplicateKeys() Option {
	return func(c *config) { c.rejectDuplicates = true }
}

func newConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		o(&c)
	}
	return c
}

// ParseFormat maps a format name ("json", "yaml", "yml") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Reader decodes r in the given format.
func Reader(r io.Reader, f Format, opts ...Option) (map[string]any, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(r, newConfig(opts))
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("source: read: %w", err)
		}
		return YAML(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// File reads and decodes a file, inferring the format from its extension.
func File(path string, opts ...Option) (map[string]any, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return Reader(bytes.NewReader(data), f, opts...)
}
