// Package output serializes reports and records to stdout or files.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer serializes values one at a time. Close must be called to
// flush buffered output.
type Writer interface {
	Write(v any) error
	Close() error
}

// NewWriter creates a writer for the given format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatJSON:
		return &jsonWriter{w: bufio.NewWriter(w), pretty: true}, nil
	case FormatJSONL:
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	case FormatYAML:
		return newYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonWriter emits one JSON value per Write call. With pretty set it
// indents each value (plain JSON); without it the output is JSONL.
type jsonWriter struct {
	w      *bufio.Writer
	pretty bool
}

func (jw *jsonWriter) Write(v any) error {
	var (
		data []byte
		err  error
	)
	if jw.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	if _, err := jw.w.Write(data); err != nil {
		return err
	}
	return jw.w.WriteByte('\n')
}

func (jw *jsonWriter) Close() error {
	return jw.w.Flush()
}

// yamlWriter emits one YAML document per Write call, separated by
// document markers.
type yamlWriter struct {
	w   *bufio.Writer
	enc *yaml.Encoder
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	bw := bufio.NewWriter(w)
	enc := yaml.NewEncoder(bw)
	enc.SetIndent(2)
	return &yamlWriter{w: bw, enc: enc}
}

func (yw *yamlWriter) Write(v any) error {
	return yw.enc.Encode(v)
}

func (yw *yamlWriter) Close() error {
	if err := yw.enc.Close(); err != nil {
		return err
	}
	return yw.w.Flush()
}
