package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/journal"
)

type inspectView struct {
	Name     string      `json:"name"`
	Snapshot string      `json:"snapshot"`
	Saved    time.Time   `json:"saved"`
	Size     int         `json:"size"`
	Counter  uint64      `json:"counter"`
	Entries  []entryView `json:"entries,omitempty"`
}

type entryView struct {
	Index    uint64     `json:"index"`
	Offset   int        `json:"offset"`
	Identity string     `json:"identity"`
	Method   string     `json:"method"`
	Args     []any      `json:"args"`
	Time     *time.Time `json:"time,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show the snapshot and decoded entries of a saved journal",
		Long: `Show the snapshot metadata and commit counter of a saved journal. Entries are
decoded without replaying them when the journal has a known schema.

Example:
  stash inspect ring`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			st, err := a.container.Store()
			if err != nil {
				return err
			}
			data, snap, err := st.Load(name)
			if err != nil {
				return err
			}
			counter, err := journal.ReadCounter(data)
			if err != nil {
				return err
			}

			v := inspectView{
				Name:     name,
				Snapshot: snap.ID.String(),
				Saved:    snap.Time,
				Size:     snap.Size,
				Counter:  counter,
			}

			schema, err := a.container.RingSchema()
			if err != nil {
				return err
			}
			known := name == schema.Name()
			if known {
				err := schema.Scan(data, func(e journal.Entry) error {
					ev := entryView{
						Index:    e.Index,
						Offset:   e.Offset,
						Identity: e.Identity.String(),
						Method:   e.Method,
						Args:     e.Args,
					}
					if e.HasTime {
						t := clock.FromMillis(e.Time)
						ev.Time = &t
					}
					v.Entries = append(v.Entries, ev)
					return nil
				})
				if err != nil {
					return fmt.Errorf("decode %s: %w", name, err)
				}
			}

			out := cmd.OutOrStdout()
			if a.output == outputJSON {
				return printJSON(out, v)
			}

			w := newTable(out)
			fmt.Fprintf(w, "Journal:\t%s\n", v.Name)
			fmt.Fprintf(w, "Snapshot:\t%s\n", v.Snapshot)
			fmt.Fprintf(w, "Saved:\t%s\n", v.Saved.Format(time.RFC3339))
			fmt.Fprintf(w, "Size:\t%d bytes\n", v.Size)
			fmt.Fprintf(w, "Counter:\t%d\n", v.Counter)
			if err := w.Flush(); err != nil {
				return err
			}
			if !known {
				fmt.Fprintln(out, "No schema known for this journal; entries not decoded.")
				return nil
			}

			fmt.Fprintln(out)
			w = newTable(out)
			fmt.Fprintln(w, "INDEX\tOFFSET\tIDENTITY\tCALL\tTIME")
			for _, e := range v.Entries {
				at := "-"
				if e.Time != nil {
					at = e.Time.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s(%s)\t%s\n", e.Index, e.Offset, e.Identity, e.Method, formatArgs(e.Args), at)
			}
			return w.Flush()
		},
	}
}
