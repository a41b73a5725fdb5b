package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/castenv"
	"github.com/eugenenazirov/castenv/envfile"
	"github.com/eugenenazirov/castenv/source"
	"github.com/eugenenazirov/castenv/value"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

// printer renders command results in the selected output format. Text output
// uses the String form of the result.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) Print(v any) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	if s, ok := v.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(p.w, s.String())
		return err
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

type explainOutput struct {
	Key   string      `json:"key" yaml:"key"`
	Found bool        `json:"found" yaml:"found"`
	Layer string      `json:"layer" yaml:"layer"`
	Raw   string      `json:"raw,omitempty" yaml:"raw,omitempty"`
	Kind  string      `json:"kind" yaml:"kind"`
	Value value.Value `json:"value" yaml:"value"`
}

func newExplainOutput(res castenv.Resolution) explainOutput {
	return explainOutput{
		Key:   res.Key,
		Found: res.Found,
		Layer: string(res.Layer),
		Raw:   res.Raw,
		Kind:  res.Value.Kind().String(),
		Value: res.Value,
	}
}

func (e explainOutput) String() string {
	return fmt.Sprintf("key=%s layer=%s kind=%s raw=%q value=%s", e.Key, e.Layer, e.Kind, e.Raw, e.Value.String())
}

type fileOutput struct {
	Path string `json:"path" yaml:"path"`
	Rank int    `json:"rank" yaml:"rank"`
}

type filesOutput struct {
	SearchDirs []string     `json:"searchDirs" yaml:"search_dirs"`
	EnvName    string       `json:"envName,omitempty" yaml:"env_name,omitempty"`
	Filenames  []string     `json:"filenames" yaml:"filenames"`
	Files      []fileOutput `json:"files" yaml:"files"`
}

func newFilesOutput(cfg source.Config, files []envfile.Candidate) filesOutput {
	out := filesOutput{
		SearchDirs: cfg.SearchDirs,
		EnvName:    cfg.EnvName,
		Filenames:  cfg.Plan().Names(),
		Files:      make([]fileOutput, 0, len(files)),
	}
	for _, f := range files {
		out.Files = append(out.Files, fileOutput{Path: f.Path, Rank: f.Rank})
	}
	return out
}

// String lists the discovered paths one per line, lowest precedence first.
func (f filesOutput) String() string {
	paths := make([]string, len(f.Files))
	for i, file := range f.Files {
		paths[i] = file.Path
	}
	return strings.Join(paths, "\n")
}
