package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/event"
	"github.com/roach88/acterstore/internal/model"
)

// readEvents parses a JSON array or newline-delimited events from path, or
// from stdin when path is "-".
func readEvents(cmd *cobra.Command, path string) ([]event.Event, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read events", err)
	}

	events, err := event.ParseMany(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to parse events", err)
	}
	return events, nil
}

// RecordView is the CLI rendering of a stored or decoded record.
type RecordView struct {
	StorageKey     string          `json:"storage_key"`
	EventID        string          `json:"event_id"`
	RoomID         string          `json:"room_id"`
	Sender         string          `json:"sender"`
	OriginServerTS uint64          `json:"origin_server_ts"`
	Kind           model.Kind      `json:"kind"`
	RedactedBy     string          `json:"redacted_by,omitempty"`
	Indexes        []string        `json:"indexes"`
	Content        json.RawMessage `json:"content"`
}

func newRecordView(rec model.Record) RecordView {
	v := RecordView{
		StorageKey:     rec.StorageKey(),
		EventID:        rec.EventID,
		RoomID:         rec.RoomID,
		Sender:         rec.Sender,
		OriginServerTS: uint64(rec.OriginServerTS),
		Kind:           rec.Kind,
		Indexes:        make([]string, len(rec.Indexes)),
		Content:        rec.Content,
	}
	for i, k := range rec.Indexes {
		v.Indexes[i] = k.String()
	}
	if rec.Redacted != nil {
		v.RedactedBy = *rec.Redacted
	}
	return v
}

func writeRecordText(w io.Writer, v RecordView) {
	fmt.Fprintf(w, "%s  %s  %s", v.StorageKey, v.Kind, v.RoomID)
	if v.RedactedBy != "" {
		fmt.Fprintf(w, "  (redacted by %s)", v.RedactedBy)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  content: %s\n", v.Content)
	for _, k := range v.Indexes {
		fmt.Fprintf(w, "  index:   %s\n", k)
	}
}
