package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Room     string
	All      bool
	Redacted bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of an index",
		Long: `List stored records in one index, ordered by origin timestamp and
then event id. Select the index with exactly one of --room, --all or
--redacted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "list the history of a room")
	cmd.Flags().BoolVar(&opts.All, "all", false, "list the history of every room")
	cmd.Flags().BoolVar(&opts.Redacted, "redacted", false, "list redacted records")

	return cmd
}

func (o *ListOptions) indexKey() (ref.IndexKey, error) {
	var keys []ref.IndexKey
	if o.Room != "" {
		keys = append(keys, ref.RoomHistory(o.Room))
	}
	if o.All {
		keys = append(keys, ref.AllHistory())
	}
	if o.Redacted {
		keys = append(keys, ref.Redacted())
	}
	if len(keys) != 1 {
		return ref.IndexKey{}, NewExitError(ExitCommandError, "exactly one of --room, --all or --redacted is required")
	}
	return keys[0], nil
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	key, err := opts.indexKey()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}

	backend, err := opts.Config.OpenBackend()
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	defer backend.Close()

	records, err := backend.ListIndex(cmd.Context(), key)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}

	views := make([]RecordView, len(records))
	for i, rec := range records {
		views[i] = newRecordView(rec)
	}

	if opts.Format == "json" {
		return formatter.Success(views)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d record(s)\n", key, len(views))
	for _, v := range views {
		writeRecordText(w, v)
	}
	return nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <event-id|storage-key>",
		Short: "Show one stored record",
		Long: `Show the record stored for an event id or a Model storage key
("acter::<event_id>").`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runGet(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	backend, err := opts.Config.OpenBackend()
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}
	defer backend.Close()

	key := id
	if _, err := model.ParseModelStorageKey(id); err != nil {
		key = ref.ModelStorageKey(id)
	}

	rec, err := backend.GetByStorageKey(cmd.Context(), key)
	if errors.Is(err, model.ErrNotFound) {
		return formatter.Fail(ErrCodeNotFound, WrapExitError(ExitFailure, "not found", err))
	}
	if err != nil {
		return formatter.Fail(ErrCodeStore, err)
	}

	view := newRecordView(rec)
	if opts.Format == "json" {
		return formatter.Success(view)
	}
	writeRecordText(cmd.OutOrStdout(), view)
	return nil
}
