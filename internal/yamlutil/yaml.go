// Package yamlutil wraps YAML parsing so config files and document headers
// share one decoder and one set of size limits.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

// MaxHeaderSize limits a document header block (default 64KB).
var MaxHeaderSize = 64 << 10

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping     = errors.New("yamlutil: header is not a mapping")
)

func checkSize(data []byte, limit int) error {
	if len(data) > limit {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), limit)
	}
	return nil
}

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if err := checkSize(data, MaxInputSize); err != nil {
		return err
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalHeader decodes a document header block into a loosely typed map.
// An empty or whitespace-only block is valid and leaves fields empty.
// A block whose top level is not a mapping fails with ErrNotMapping.
func UnmarshalHeader(data []byte) (map[string]any, error) {
	if err := checkSize(data, MaxHeaderSize); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return fields, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	switch m := raw.(type) {
	case nil:
		return fields, nil
	case map[string]any:
		return m, nil
	case map[any]any:
		for k, v := range m {
			fields[fmt.Sprint(k)] = v
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}
}
