// Package fixture loads, saves and fingerprints oracle tables.
package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vcheck/internal/domain"
)

// ErrInvalidFixture is wrapped by every validation failure
var ErrInvalidFixture = errors.New("invalid fixture")

// Format is the on-disk encoding of a fixture
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Unknown extensions are JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and validates a fixture file
func Load(path string) (*domain.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	f, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.Path = path
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f, nil
}

// Decode parses fixture bytes in the given format. YAML is normalised to JSON
// first so both formats go through the same schema.
func Decode(data []byte, format Format) (*domain.Fixture, error) {
	jsonData := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		jsonData = converted
	}

	if err := Validate(jsonData); err != nil {
		return nil, err
	}

	var f domain.Fixture
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		// Integers outside int64 pass the schema but not the decoder
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	return &f, nil
}

// Save writes f to path in the format implied by its extension
func Save(path string, f *domain.Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, FormatOf(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// Encode writes f to w
func Encode(w io.Writer, f *domain.Fixture, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("marshal fixture: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal fixture: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
}
