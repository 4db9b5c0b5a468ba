package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/schema"
)

// ValidationEntry is the schema verdict for one event.
type ValidationEntry struct {
	EventID    string             `json:"event_id"`
	Type       string             `json:"type"`
	Valid      bool               `json:"valid"`
	Skipped    bool               `json:"skipped,omitempty"`
	Field      string             `json:"field,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Events  []ValidationEntry `json:"events"`
	Invalid int               `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <events-file|->",
		Short: "Validate event content against the schemas",
		Long: `Check the identifiers on every event, then its content and previous
content against the schema for its type. Events of types without a schema
are skipped.

Exit codes:
  0 - All events valid
  1 - One or more events invalid
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	events, err := readEvents(cmd, path)
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}

	v, err := schema.New()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}
	formatter.VerboseLog("Loaded schemas for %d event type(s)", len(v.Types()))

	result := ValidationResult{Valid: true, Events: make([]ValidationEntry, 0, len(events))}
	for _, ev := range events {
		entry := ValidationEntry{EventID: ev.EventID, Type: ev.Type, Valid: true}

		if err := ev.Validate(); err != nil {
			entry.Valid = false
			entry.Field = "envelope"
			entry.Violations = []schema.Violation{{Message: err.Error()}}
			result.Valid = false
			result.Invalid++
			result.Events = append(result.Events, entry)
			continue
		}

		err := v.Validate(ev)
		var verr *schema.ValidationError
		switch {
		case err == nil:
		case errors.Is(err, schema.ErrNoSchema):
			entry.Skipped = true
		case errors.As(err, &verr):
			entry.Valid = false
			entry.Field = verr.Field
			entry.Violations = verr.Violations
		default:
			return formatter.Fail(ErrCodeGeneric, err)
		}

		if !entry.Valid {
			result.Valid = false
			result.Invalid++
		}
		result.Events = append(result.Events, entry)
	}

	if opts.Format == "json" {
		if !result.Valid {
			if err := formatter.Error(ErrCodeValidation, fmt.Sprintf("%d invalid event(s)", result.Invalid), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "validation failed")
		}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, e := range result.Events {
		switch {
		case e.Skipped:
			formatter.VerboseLog("- %s %s: no schema", e.EventID, e.Type)
		case e.Valid:
			fmt.Fprintf(w, "✓ %s %s\n", e.EventID, e.Type)
		default:
			fmt.Fprintf(w, "✗ %s %s (%s)\n", e.EventID, e.Type, e.Field)
			for _, vi := range e.Violations {
				if vi.Path == "" {
					fmt.Fprintf(w, "  %s\n", vi.Message)
					continue
				}
				fmt.Fprintf(w, "  %s: %s\n", vi.Path, vi.Message)
			}
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid event(s)", result.Invalid))
	}
	return nil
}
