package cmd

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/recap-cli/config"
)

// writeJSON outputs data as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML outputs data as YAML.
func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

// writeResult renders v in the requested format, falling back to textFn for
// human-readable output.
func writeResult(w io.Writer, format config.OutputFormat, v interface{}, textFn func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		return writeJSON(w, v)
	case config.OutputFormatYAML:
		return writeYAML(w, v)
	default:
		return textFn(w)
	}
}
