package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/scontrino/internal/receipt"
)

type reportItem struct {
	File      string          `json:"file" yaml:"file"`
	Record    *receipt.Record `json:"record,omitempty" yaml:"record,omitempty"`
	Rectified bool            `json:"rectified" yaml:"rectified"`
	Cached    bool            `json:"cached" yaml:"cached"`
	Issues    []receipt.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

type report struct {
	Images  []reportItem `json:"images" yaml:"images"`
	Summary struct {
		Total      int   `json:"total" yaml:"total"`
		Succeeded  int   `json:"succeeded" yaml:"succeeded"`
		Failed     int   `json:"failed" yaml:"failed"`
		Workers    int   `json:"workers" yaml:"workers"`
		DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
	} `json:"summary" yaml:"summary"`
}

// FormatResults renders the batch result as text, json, yaml or csv.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		bts, err := json.MarshalIndent(r.report(), "", "  ")
		if err != nil {
			return "", err
		}
		return string(bts) + "\n", nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r.report()); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	case "csv":
		return r.formatCSV()
	case "text", "":
		return r.formatText(), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func (r *Result) report() report {
	var rep report
	rep.Images = make([]reportItem, 0, len(r.Items))
	for _, it := range r.Items {
		ri := reportItem{File: it.Path}
		if it.Outcome != nil {
			rec := it.Outcome.Record
			ri.Record = &rec
			ri.Rectified = it.Outcome.Rectified
			ri.Cached = it.Outcome.Cached
			ri.Issues = it.Outcome.Issues
		}
		if it.Err != nil {
			ri.Error = it.Err.Error()
		}
		rep.Images = append(rep.Images, ri)
	}
	rep.Summary.Total = len(r.Items)
	rep.Summary.Succeeded = r.Succeeded()
	rep.Summary.Failed = r.Failed()
	rep.Summary.Workers = r.WorkerCount
	rep.Summary.DurationMS = r.Duration.Milliseconds()
	return rep
}

func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	header := append([]string{"file"}, receipt.CSVHeader()...)
	header = append(header, "error")
	if err := writer.Write(header); err != nil {
		return "", err
	}
	for _, it := range r.Items {
		var row []string
		if it.Outcome != nil {
			row = receipt.CSVRow(it.Outcome.Record)
		} else {
			row = make([]string, len(receipt.Fields()))
		}
		errText := ""
		if it.Err != nil {
			errText = it.Err.Error()
		}
		row = append(append([]string{it.Path}, row...), errText)
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func (r *Result) formatText() string {
	var output strings.Builder
	for i, it := range r.Items {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", it.Path)
		switch {
		case it.Err != nil:
			fmt.Fprintf(&output, "error: %v\n", it.Err)
		case it.Outcome != nil:
			output.WriteString(receipt.FormatText(it.Outcome.Record))
			for _, issue := range it.Outcome.Issues {
				fmt.Fprintf(&output, "! %s\n", issue)
			}
		default:
			output.WriteString("skipped\n")
		}
	}
	return output.String()
}
