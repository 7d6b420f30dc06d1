package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization format for scenes and layouts.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension. Unknown extensions
// default to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadScene decodes a scene document from r.
func ReadScene(r io.Reader, format Format) (*Scene, error) {
	var s Scene
	if err := decode(r, format, &s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &s, nil
}

// LoadScene reads a scene file, picking the format from the extension.
func LoadScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScene(f, FormatForPath(path))
}

// WriteLayout encodes a layout document to w.
func WriteLayout(l *Layout, w io.Writer, format Format) error {
	if err := encode(w, format, l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// ExportLayout writes a layout document to a file at path, picking the
// format from the extension.
func ExportLayout(l *Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f, FormatForPath(path))
}

// ReadLayout decodes a layout document from r. Used to re-load persisted
// layouts for rendering or snapshot restore.
func ReadLayout(r io.Reader, format Format) (*Layout, error) {
	var l Layout
	if err := decode(r, format, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}

func decode(r io.Reader, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.NewDecoder(r).Decode(v)
	default:
		return json.NewDecoder(r).Decode(v)
	}
}

func encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
