package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type printer struct {
	format string
	writer io.Writer
}

func newPrinter() *printer {
	return &printer{format: strings.ToLower(outputFmt), writer: os.Stdout}
}

func (p *printer) print(data any) error {
	switch p.format {
	case "yaml", "yml":
		// go through json so the entities' json tags apply
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		data = generic

		enc := yaml.NewEncoder(p.writer)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		enc := json.NewEncoder(p.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
}
