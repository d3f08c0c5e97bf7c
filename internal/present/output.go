package present

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"

	"docverify/internal/api"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (use text, json or yaml)", raw)
}

// Document is the structured form of a rendered result.
type Document struct {
	JobID  string        `json:"job_id" yaml:"job_id"`
	Status api.JobStatus `json:"status" yaml:"status"`
	State  string        `json:"state" yaml:"state"`
	Views  []Rendered    `json:"views" yaml:"views"`
}

// Write encodes doc in format to w. Text output is coloured when colorize
// is set.
func Write(w io.Writer, format Format, doc Document, colorize bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return WriteText(w, doc.Views, colorize)
	}
}

// WriteText prints each rendered view as a section.
func WriteText(w io.Writer, views []Rendered, colorize bool) error {
	var b strings.Builder
	for i, view := range views {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, line := range SectionHeader(view.Title, colorize) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		for j, line := range view.Lines {
			if j == 0 {
				line = Colorize(line, view.Kind, colorize)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if table := view.Table.render(); table != "" {
			b.WriteString(table)
			b.WriteString("\n")
		}
		for _, note := range view.Notes {
			b.WriteString(note)
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
