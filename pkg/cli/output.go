package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cybershield/notifier/pkg/mail"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// WriteObject encodes obj as JSON or YAML. Text output is command specific.
func WriteObject(w io.Writer, format Format, obj any) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	case FormatText:
		return fmt.Errorf("text format requires a specific formatter")
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

type templateSummary struct {
	Name         string   `json:"name" yaml:"name"`
	Subject      string   `json:"subject" yaml:"subject"`
	Placeholders []string `json:"placeholders" yaml:"placeholders"`
}

func WriteTemplateTable(w io.Writer, templates []templateSummary) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSUBJECT\tPLACEHOLDERS")
	for _, t := range templates {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Subject, strings.Join(t.Placeholders, ","))
	}
	_ = tw.Flush()
}

func WriteRendered(w io.Writer, r mail.Rendered) {
	_, _ = fmt.Fprintf(w, "Subject: %s\n\n%s\n", r.Subject, r.Body)
}
