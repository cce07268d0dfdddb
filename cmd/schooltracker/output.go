package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) printer {
	return printer{w: w, format: format}
}

func (p printer) print(v any) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML, "":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", p.format)
	}
}

func (p printer) message(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
