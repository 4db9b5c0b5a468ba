package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/labels"
)

// LabelsView is the structured form of a label list.
type LabelsView struct {
	Msgtype    *string  `json:"msgtype,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Sections   []string `json:"sections,omitempty"`
	Others     []string `json:"others,omitempty"`
}

func (v LabelsView) labels() labels.Labels {
	return labels.Labels{
		Msgtype:    v.Msgtype,
		Tags:       v.Tags,
		Categories: v.Categories,
		Sections:   v.Sections,
		Others:     v.Others,
	}
}

func newLabelsView(l labels.Labels) LabelsView {
	return LabelsView{
		Msgtype:    l.Msgtype,
		Tags:       l.Tags,
		Categories: l.Categories,
		Sections:   l.Sections,
		Others:     l.Others,
	}
}

// NewLabelsCommand creates the labels command group.
func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Encode and decode label lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "decode <entry>...",
		Short:         "Decode label entries such as m.tag:urgent",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := newLabelsView(labels.Decode(args))
			if rootOpts.Format == "json" {
				return newFormatter(rootOpts, cmd).Success(view)
			}
			w := cmd.OutOrStdout()
			if view.Msgtype != nil {
				fmt.Fprintf(w, "msgtype:    %s\n", *view.Msgtype)
			}
			writeLabelList(w, "tags", view.Tags)
			writeLabelList(w, "categories", view.Categories)
			writeLabelList(w, "sections", view.Sections)
			writeLabelList(w, "others", view.Others)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "encode <labels-json>",
		Short:         `Encode {"msgtype":..,"tags":[..],..} into label entries`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var view LabelsView
			if err := json.Unmarshal([]byte(args[0]), &view); err != nil {
				return WrapExitError(ExitCommandError, "invalid labels JSON", err)
			}
			entries := labels.Encode(view.labels())
			if rootOpts.Format == "json" {
				return newFormatter(rootOpts, cmd).Success(entries)
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return nil
		},
	})

	return cmd
}

func writeLabelList(w io.Writer, name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(w, "%-11s %s\n", name+":", strings.Join(values, ", "))
}
