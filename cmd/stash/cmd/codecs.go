package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type codecView struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

func newCodecsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "List the active codecs in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codecs := a.container.Registry().Codecs()
			views := make([]codecView, 0, len(codecs))
			for _, c := range codecs {
				v := codecView{Kind: c.Kind.String(), Name: c.Name}
				if c.Type != nil {
					v.Type = c.Type.String()
				}
				views = append(views, v)
			}

			out := cmd.OutOrStdout()
			if a.output == outputJSON {
				return printJSON(out, views)
			}

			w := newTable(out)
			fmt.Fprintln(w, "KIND\tNAME\tTYPE")
			for _, v := range views {
				typ := v.Type
				if typ == "" {
					typ = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Kind, v.Name, typ)
			}
			return w.Flush()
		},
	}
}
