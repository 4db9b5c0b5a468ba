package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/ingest"
	"github.com/roach88/acterstore/internal/schema"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Validate bool // reject events whose content fails schema validation
	Metrics  bool // print ingest metrics to stderr
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <events-file|->",
		Short: "Decode and persist events",
		Long: `Decode events, persist the resulting models and report every stale
reference. Rejected events are reported but do not stop the batch;
redaction events mark their targets as redacted.

Exit codes:
  0 - Batch ingested (rejections included)
  1 - Store failure
  2 - Command error (unreadable input, bad configuration)

Examples:
  acterstore ingest --db rooms.db events.json
  acterstore ingest --backend pebble --db ./rooms events.ndjson --metrics
  cat events.json | acterstore ingest --backend memory -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "validate event content against schemas before decoding")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print ingest metrics to stderr")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	events, err := readEvents(cmd, path)
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}

	backend, err := opts.Config.OpenBackend()
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	defer backend.Close()

	pipeline := &ingest.Pipeline{
		Store:   backend,
		Workers: opts.Config.Workers,
		Logger:  opts.logger(),
	}
	if opts.Validate {
		v, err := schema.New()
		if err != nil {
			return formatter.Fail(ErrCodeGeneric, err)
		}
		pipeline.Validator = v
	}

	formatter.VerboseLog("Ingesting %d event(s) into %s backend", len(events), opts.Config.Backend)
	result, err := pipeline.Ingest(cmd.Context(), events)
	formatter.RunID = result.RunID

	if opts.Metrics {
		if mErr := writeMetrics(formatter.GetErrWriter()); mErr != nil {
			formatter.VerboseLog("failed to write metrics: %v", mErr)
		}
	}

	if err != nil {
		return formatter.Fail(ErrCodeStore, WrapExitError(ExitFailure, "ingest failed", err))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Ingested %d event(s): %d decoded, %d rejected, %d redacted (run %s)\n",
		len(events), result.Decoded, result.Rejected, result.Redacted, result.RunID)
	for _, o := range result.Outcomes {
		if o.Rejected {
			fmt.Fprintf(w, "  ✗ %s %s: %s\n", o.EventID, o.Type, o.Reason)
		}
	}
	if len(result.References) > 0 {
		fmt.Fprintln(w, "References:")
		for _, r := range result.References {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
	return nil
}

// writeMetrics renders the ingest collectors in the Prometheus text format.
func writeMetrics(w io.Writer) error {
	reg := prometheus.NewRegistry()
	for _, c := range ingest.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
