package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"
	vmodel "github.com/reoring/vmodel"
)

// JSON decodes a JSON object. Numbers are returned as json.Number.
func JSON(b []byte, opts ...Option) (map[string]any, error) {
	return decodeJSON(bytes.NewReader(b), newConfig(opts))
}

func decodeJSON(r io.Reader, cfg config) (map[string]any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	v, err := readValue(dec, nil, cfg)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("source: json: unexpected end of input")
		}
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("source: json: trailing data after document")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w (got %T)", ErrNotObject, v)
	}
	return obj, nil
}

// readValue walks one value with Decoder.Token so repeated keys are visible.
func readValue(dec *j.Decoder, at vmodel.Path, cfg config) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapJSON(err)
	}
	d, isDelim := tok.(j.Delim)
	if !isDelim {
		return tok, nil
	}
	switch d {
	case '{':
		obj := map[string]any{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, wrapJSON(err)
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("source: json: object key at %s is %T", at.Pointer(), kt)
			}
			if _, dup := obj[key]; dup && cfg.rejectDuplicates {
				return nil, fmt.Errorf("%w at %s", ErrDuplicateKey, at.Field(key).Pointer())
			}
			v, err := readValue(dec, at.Field(key), cfg)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, wrapJSON(err)
		}
		return obj, nil
	case '[':
		arr := []any{}
		for i := 0; dec.More(); i++ {
			v, err := readValue(dec, at.Index(i), cfg)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, wrapJSON(err)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("source: json: unexpected delimiter %q at %s", rune(d), at.Pointer())
}

func wrapJSON(err error) error {
	if errors.Is(err, io.EOF) {
		return err
	}
	return fmt.Errorf("source: json: %w", err)
}
