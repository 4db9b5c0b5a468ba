package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/model"
)

// DecodeEntry is the decode outcome for one event.
type DecodeEntry struct {
	EventID  string      `json:"event_id"`
	Type     string      `json:"type"`
	Rejected bool        `json:"rejected,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Record   *RecordView `json:"record,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <events-file|->",
		Short: "Decode events without storing them",
		Long: `Decode events into models and show the record each would persist,
including its index memberships for the acting user.

Input is a JSON array of client-format events or one event per line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	events, err := readEvents(cmd, path)
	if err != nil {
		return formatter.Fail(ErrCodeInput, err)
	}

	entries := make([]DecodeEntry, 0, len(events))
	for _, ev := range events {
		entry := DecodeEntry{EventID: ev.EventID, Type: ev.Type}
		status, err := model.Decode(ev)
		if err != nil {
			entry.Rejected = true
			entry.Reason = err.Error()
			entries = append(entries, entry)
			continue
		}
		rec, err := status.Record(opts.Config.UserID)
		if err != nil {
			return formatter.Fail(ErrCodeGeneric, WrapExitError(ExitFailure, "failed to build record", err))
		}
		view := newRecordView(rec)
		entry.Record = &view
		entries = append(entries, entry)
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	w := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Rejected {
			fmt.Fprintf(w, "✗ %s %s: %s\n", e.EventID, e.Type, e.Reason)
			continue
		}
		writeRecordText(w, *e.Record)
	}
	return nil
}
