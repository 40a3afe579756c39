package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

var outputFormats = []string{"text", "json", "yaml", "csv"}

type outcomeView struct {
	Source    string             `json:"source,omitempty" yaml:"source,omitempty"`
	Record    receipt.Record     `json:"record" yaml:"record"`
	Rectified bool               `json:"rectified" yaml:"rectified"`
	Cached    bool               `json:"cached,omitempty" yaml:"cached,omitempty"`
	Issues    []receipt.Issue    `json:"issues,omitempty" yaml:"issues,omitempty"`
	Attempts  []pipeline.Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

func viewOf(out *scanner.Outcome, showAttempts bool) outcomeView {
	v := outcomeView{
		Source:    out.Source,
		Record:    out.Record,
		Rectified: out.Rectified,
		Cached:    out.Cached,
		Issues:    out.Issues,
	}
	if showAttempts {
		v.Attempts = out.Attempts
	}
	return v
}

func checkFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want %s)", format, strings.Join(outputFormats, ", "))
}

// writeOutcomes renders outcomes in format. A single outcome is written as
// an object, several as a list.
func writeOutcomes(w io.Writer, format string, outs []*scanner.Outcome, showAttempts bool) error {
	views := make([]outcomeView, len(outs))
	for i, o := range outs {
		views[i] = viewOf(o, showAttempts)
	}
	var doc any = views
	if len(views) == 1 {
		doc = views[0]
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(append([]string{"file"}, receipt.CSVHeader()...)); err != nil {
			return err
		}
		for _, v := range views {
			if err := cw.Write(append([]string{v.Source}, receipt.CSVRow(v.Record)...)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return writeText(w, views)
	}
}

func writeText(w io.Writer, views []outcomeView) error {
	var b strings.Builder
	for i, v := range views {
		if len(views) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "# %s\n", v.Source)
		}
		b.WriteString(receipt.FormatText(v.Record))
		for _, issue := range v.Issues {
			fmt.Fprintf(&b, "! %s\n", issue)
		}
		for _, at := range v.Attempts {
			fmt.Fprintf(&b, "- %s rotation=%d fields=%d kept=%t: %s\n",
				at.Candidate, at.Rotation, at.Fields, at.Kept, strings.Join(at.Tokens, " | "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// openOutput returns the named file, or fallback when name is empty.
func openOutput(name string, fallback io.Writer) (io.Writer, func() error, error) {
	if name == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(name) //nolint:gosec // G304: output path is user input
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
