package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgoffredo/tisch"
	"github.com/dgoffredo/tisch/engine"
	"github.com/dgoffredo/tisch/stream"
	"github.com/dgoffredo/tisch/worker"
)

// OutputFormat specifies the report format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

type validateFlags struct {
	unit           string
	output         string
	format         string
	workers        int
	maxDiagnostics int
	quiet          bool
	split          string
}

// DocumentOutput is one document's entry in the JSON report.
type DocumentOutput struct {
	Document    string   `json:"document"`
	Unit        string   `json:"unit"`
	Valid       bool     `json:"valid"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Omitted     int      `json:"omitted,omitempty"`
	Error       string   `json:"error,omitempty"`
	Duration    string   `json:"duration"`
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	f := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate --unit ID FILE...",
		Short: "Validate documents against a unit",
		Long: "Validate JSON or YAML documents against the pattern unit ID.\n" +
			"FILE may be a glob; - reads one document from standard input.",
		Example: "  " + appName + " validate -p patterns --unit order orders/*.json\n" +
			"  cat order.yaml | " + appName + " validate -p patterns --unit order -",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.unit, "unit", "u", "", "ID of the unit to validate against (required)")
	cmd.Flags().StringVarP(&f.output, "output", "o", string(OutputText), "report format: text or json")
	cmd.Flags().StringVar(&f.format, "format", "auto", "document format: auto, json or yaml")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().IntVar(&f.maxDiagnostics, "max-diagnostics", 0, "diagnostics reported per document (0: all)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "report only documents that fail")
	cmd.Flags().StringVar(&f.split, "split", "",
		"treat each FILE as a stream of documents: json (a sequence of values), array, yaml or auto")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalFlags, f *validateFlags, args []string) error {
	var output OutputFormat
	switch OutputFormat(strings.ToLower(f.output)) {
	case OutputText:
		output = OutputText
	case OutputJSON:
		output = OutputJSON
	default:
		return &exitError{code: exitUsage, err: fmt.Errorf("unknown output format %q", f.output)}
	}

	e, _, err := g.engine(cmd,
		tisch.WithInputFormat(f.format),
		tisch.WithWorkerCount(f.workers),
		tisch.WithMaxDiagnostics(f.maxDiagnostics),
	)
	if err != nil {
		return err
	}

	// Compile before reading anything, so a broken unit is a usage error.
	if _, err := e.Validator(f.unit); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	var outputs []DocumentOutput
	if f.split != "" {
		outputs, err = validateStreams(cmd, e, f, args)
	} else {
		outputs, err = validateDocuments(cmd, e, f, args)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, o := range outputs {
		if !o.Valid {
			failed++
		}
	}

	if output == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			return err
		}
	} else {
		for _, o := range outputs {
			if f.quiet && o.Valid {
				continue
			}
			printText(w, o)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d document(s), %d failed\n", len(outputs), failed)
	}

	if failed > 0 {
		return &exitError{code: exitInvalid}
	}
	return nil
}

func validateDocuments(cmd *cobra.Command, e *engine.Engine, f *validateFlags, args []string) ([]DocumentOutput, error) {
	jobs, unread := readDocuments(cmd.InOrStdin(), args)
	for i := range unread {
		unread[i].Unit = f.unit
	}

	br, err := e.ValidateJobs(cmd.Context(), f.unit, jobs)
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	defer br.Release()

	outputs := make([]DocumentOutput, 0, len(unread)+len(br.Results))
	outputs = append(outputs, unread...)
	for _, r := range br.Results {
		outputs = append(outputs, documentOutput(f.unit, r))
	}
	return outputs, nil
}

// validateStreams splits every argument into documents.
func validateStreams(cmd *cobra.Command, e *engine.Engine, f *validateFlags, args []string) ([]DocumentOutput, error) {
	if _, err := stream.For(f.split, strings.NewReader("")); err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}

	var outputs []DocumentOutput
	check := func(name string, in io.Reader) error {
		s, _ := stream.For(f.split, in)
		results, err := e.ValidateStream(cmd.Context(), f.unit, name, s)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		for r := range results {
			outputs = append(outputs, documentOutput(f.unit, r))
			r.Result.Release()
		}
		return nil
	}

	for _, arg := range args {
		if arg == "-" {
			if err := check("stdin", cmd.InOrStdin()); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			outputs = append(outputs, DocumentOutput{Document: arg, Unit: f.unit, Error: "no files match " + arg, Duration: "0s"})
			continue
		}
		for _, path := range matches {
			file, err := os.Open(path)
			if err != nil {
				outputs = append(outputs, DocumentOutput{Document: path, Unit: f.unit, Error: err.Error(), Duration: "0s"})
				continue
			}
			err = check(path, file)
			file.Close()
			if err != nil {
				return nil, err
			}
		}
	}
	return outputs, nil
}

// readDocuments reads args into jobs. Arguments that cannot be read are
// reported as failed documents.
func readDocuments(stdin io.Reader, args []string) ([]worker.Job, []DocumentOutput) {
	var jobs []worker.Job
	var unread []DocumentOutput

	add := func(name string, data []byte) {
		jobs = append(jobs, worker.Job{ID: name, Index: len(jobs), Document: data})
	}
	fail := func(name string, err error) {
		unread = append(unread, DocumentOutput{Document: name, Error: err.Error(), Duration: "0s"})
	}

	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				fail("stdin", fmt.Errorf("failed to read stdin: %w", err))
				continue
			}
			add("stdin", data)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			fail(arg, fmt.Errorf("bad pattern: %w", err))
			continue
		}
		if len(matches) == 0 {
			fail(arg, fmt.Errorf("no files match %s", arg))
			continue
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				fail(path, err)
				continue
			}
			add(path, data)
		}
	}
	return jobs, unread
}

func documentOutput(unit string, r *worker.JobResult) DocumentOutput {
	o := DocumentOutput{
		Document: r.ID,
		Unit:     unit,
		Duration: r.Duration.Round(time.Microsecond).String(),
	}
	if r.Error != nil {
		o.Error = r.Error.Error()
		return o
	}
	o.Valid = r.Result.Valid
	o.Diagnostics = slices.Clone(r.Result.Diagnostics)
	o.Omitted = r.Result.Omitted
	return o
}

func printText(w io.Writer, o DocumentOutput) {
	switch {
	case o.Error != "":
		fmt.Fprintf(w, "%s: ERROR %s\n", o.Document, o.Error)
	case o.Valid:
		fmt.Fprintf(w, "%s: VALID\n", o.Document)
	default:
		fmt.Fprintf(w, "%s: INVALID\n", o.Document)
		for _, d := range o.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
		if o.Omitted > 0 {
			fmt.Fprintf(w, "  ... %d more\n", o.Omitted)
		}
	}
}
