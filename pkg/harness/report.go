package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Report collects the results of a harness run.
type Report struct {
	Child  string        `json:"child" yaml:"child"`
	Phases []PhaseResult `json:"phases" yaml:"phases"`
}

// Failed reports whether any phase failed. Warnings do not count.
func (r *Report) Failed() bool {
	for _, p := range r.Phases {
		if p.Status == StatusFail {
			return true
		}
	}
	return false
}

// Counts returns the number of phases per status.
func (r *Report) Counts() map[Status]int {
	counts := map[Status]int{StatusOK: 0, StatusWarn: 0, StatusFail: 0}
	for _, p := range r.Phases {
		counts[p.Status]++
	}
	return counts
}

type phaseView struct {
	PhaseResult `yaml:",inline"`
	DurationMS  int64 `json:"duration_ms" yaml:"duration_ms"`
}

type reportView struct {
	Child   string         `json:"child" yaml:"child"`
	Passed  bool           `json:"passed" yaml:"passed"`
	Summary map[Status]int `json:"summary" yaml:"summary"`
	Phases  []phaseView    `json:"phases" yaml:"phases"`
}

func (r *Report) view() reportView {
	v := reportView{
		Child:   r.Child,
		Passed:  !r.Failed(),
		Summary: r.Counts(),
		Phases:  make([]phaseView, 0, len(r.Phases)),
	}
	for _, p := range r.Phases {
		v.Phases = append(v.Phases, phaseView{PhaseResult: p, DurationMS: p.Duration.Milliseconds()})
	}
	return v
}

// Write renders the report as text, yaml or json.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.writeText(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.view()); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(r.view(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r *Report) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tNAME\tSTATUS\tDURATION\tDETAIL")
	for _, p := range r.Phases {
		detail := p.Detail
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.Number, p.Name, p.Status, p.Duration.Truncate(time.Millisecond), detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	c := r.Counts()
	_, err := fmt.Fprintf(w, "\n%d ok, %d warn, %d fail\n", c[StatusOK], c[StatusWarn], c[StatusFail])
	return err
}
