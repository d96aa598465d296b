package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/clock"
	"github.com/ssargent/stash/pkg/ring"
	"github.com/ssargent/stash/pkg/store"
)

// ringJournal is the snapshot name of the demo ring
const ringJournal = "ring"

// ringSession is a ring replayed from its snapshot
type ringSession struct {
	store   store.Store
	stash   *ring.Stash
	subject *ring.Ring
}

// openRing replays the saved ring log, or starts an empty one
func (a *app) openRing() (*ringSession, error) {
	st, err := a.container.Store()
	if err != nil {
		return nil, err
	}
	schema, err := a.container.RingSchema()
	if err != nil {
		return nil, err
	}

	data, _, err := st.Load(ringJournal)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	buf, err := buffer.Wrap(data, a.container.Config().Journal.Capacity)
	if err != nil {
		return nil, err
	}

	subject := ring.New()
	stash, err := ring.Open(schema, subject, buf, a.container.JournalConfig())
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", ringJournal, err)
	}
	return &ringSession{store: st, stash: stash, subject: subject}, nil
}

// save writes the committed log back to the store
func (s *ringSession) save() (store.Snapshot, error) {
	return s.store.Save(ringJournal, s.stash.Journal().Bytes())
}

type ringView struct {
	Slots   []int32    `json:"slots"`
	Sum     int32      `json:"sum"`
	Counter uint64     `json:"counter"`
	Marks   []markView `json:"marks,omitempty"`
}

type markView struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

func (s *ringSession) view() (ringView, error) {
	slots, err := s.stash.Values()
	if err != nil {
		return ringView{}, err
	}
	sum, err := s.stash.Sum()
	if err != nil {
		return ringView{}, err
	}
	v := ringView{Slots: slots, Sum: sum, Counter: s.stash.Journal().Counter()}
	for _, m := range s.subject.Marks() {
		v.Marks = append(v.Marks, markView{Name: m.Name, At: clock.FromMillis(m.At)})
	}
	return v, nil
}

func (a *app) printRing(cmd *cobra.Command, s *ringSession) error {
	v, err := s.view()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if a.output == outputJSON {
		return printJSON(out, v)
	}

	fmt.Fprintf(out, "%s (%d entries)\n", s.subject, v.Counter)
	for _, m := range v.Marks {
		fmt.Fprintf(out, "  %s at %s\n", m.Name, m.At.Format(time.RFC3339))
	}
	return nil
}

func newRingCmd(a *app) *cobra.Command {
	ringCmd := &cobra.Command{
		Use:   "ring",
		Short: "Drive the journaled ring accumulator",
		Long: `The ring is a fixed ring of five int32 slots. Every store is recorded in the
"ring" journal, which is replayed on each invocation and saved afterwards.`,
	}
	ringCmd.AddCommand(newRingStoreCmd(a), newRingLabelCmd(a), newRingShowCmd(a))
	return ringCmd
}

func newRingStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "store <value>...",
		Short: "Store values into the ring",
		Long: `Store each value into the next slot of the ring and save the journal.

Example:
  stash ring store 1 2 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]int32, len(args))
			for i, arg := range args {
				v, err := strconv.ParseInt(arg, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				values[i] = int32(v)
			}

			s, err := a.openRing()
			if err != nil {
				return err
			}

			var callErr error
			for _, v := range values {
				if _, callErr = s.stash.Store(v); callErr != nil {
					break
				}
			}
			// whatever was committed is kept even when a later store failed
			if _, err := s.save(); err != nil {
				return err
			}
			if callErr != nil {
				return callErr
			}
			return a.printRing(cmd, s)
		},
	}
}

func newRingLabelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "label <name>",
		Short: "Record a named point in time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openRing()
			if err != nil {
				return err
			}
			// the time argument is supplied by the journal clock
			if err := s.stash.Label(args[0], 0); err != nil {
				return err
			}
			if _, err := s.save(); err != nil {
				return err
			}
			return a.printRing(cmd, s)
		},
	}
}

func newRingShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Replay the ring journal and print the ring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openRing()
			if err != nil {
				return err
			}
			return a.printRing(cmd, s)
		},
	}
}
