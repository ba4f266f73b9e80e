package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Write encodes doc in the given format. FormatText produces the console rendering.
func Write(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		PrintDocument(w, doc, PrintOptions{Timeline: true})
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
