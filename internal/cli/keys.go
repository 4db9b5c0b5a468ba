package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/ref"
)

// KeyEntry is the storage key resolution for one reference.
type KeyEntry struct {
	Reference string `json:"reference"`
	Key       string `json:"key,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <reference-json>...",
		Short: "Resolve references to storage keys",
		Long: `Resolve execute references, given in their JSON form, to the keys
they are stored and announced under. References without a key are
reported as errors.

Examples:
  acterstore keys '{"Model":"$event"}'
  acterstore keys '{"ModelParam":["$event","comments_stats"]}'
  acterstore keys '{"Index":{"Special":"invited_to"}}'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runKeys(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	entries := make([]KeyEntry, 0, len(args))
	failed := 0
	for _, arg := range args {
		var r ref.ExecuteReference
		if err := json.Unmarshal([]byte(arg), &r); err != nil {
			return formatter.Fail(ErrCodeInput, WrapExitError(ExitCommandError, "invalid reference "+arg, err))
		}
		entry := KeyEntry{Reference: r.String()}
		key, err := r.StorageKey()
		if err != nil {
			entry.Error = err.Error()
			failed++
		} else {
			entry.Key = key
		}
		entries = append(entries, entry)
	}

	if opts.Format == "json" {
		if failed > 0 {
			if err := formatter.Error(ErrCodeKey, fmt.Sprintf("%d reference(s) have no storage key", failed), entries); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "unresolved references")
		}
		return formatter.Success(entries)
	}

	w := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(w, "✗ %s: %s\n", e.Reference, e.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Reference, e.Key)
	}
	if failed > 0 {
		return NewExitError(ExitFailure, "unresolved references")
	}
	return nil
}
