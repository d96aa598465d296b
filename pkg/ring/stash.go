package ring

import (
	"fmt"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/journal"
)

// Signatures declares the methods of Accumulator
func Signatures() []journal.Signature[Accumulator] {
	return []journal.Signature[Accumulator]{
		{
			Name:    "Store",
			Params:  []journal.Param{journal.ParamOf[int32]("value")},
			Returns: true,
			Invoke: func(a Accumulator, args []any) (any, error) {
				return a.Store(args[0].(int32))
			},
		},
		{
			Name:      "Push",
			Params:    []journal.Param{journal.ParamOf[int32]("value")},
			Returns:   true,
			Chainable: true,
			Invoke: func(a Accumulator, args []any) (any, error) {
				return a.Push(args[0].(int32))
			},
		},
		{
			Name:   "Label",
			Params: []journal.Param{journal.ParamOf[string]("name"), journal.TimeParam[int64]("at")},
			Invoke: func(a Accumulator, args []any) (any, error) {
				return nil, a.Label(args[0].(string), args[1].(int64))
			},
		},
		{
			Name:     "Values",
			Volatile: true,
			Returns:  true,
			Invoke: func(a Accumulator, _ []any) (any, error) {
				return a.Values()
			},
		},
		{
			Name:     "Sum",
			Volatile: true,
			Returns:  true,
			Invoke: func(a Accumulator, _ []any) (any, error) {
				return a.Sum()
			},
		},
	}
}

// Compile compiles the Accumulator schema
func Compile(cfg journal.SchemaConfig) (*journal.Schema[Accumulator], error) {
	if cfg.Comment == "" {
		cfg.Comment = fmt.Sprintf("ring accumulator of %d int32 slots", Size)
	}
	return journal.Compile("ring", Signatures(), cfg)
}

// Stash is the journaled Accumulator: every mutating call goes through the journal
type Stash struct {
	journal *journal.Journal[Accumulator]
	store   *journal.Method[Accumulator]
	push    *journal.Method[Accumulator]
	label   *journal.Method[Accumulator]
	values  *journal.Method[Accumulator]
	sum     *journal.Method[Accumulator]
}

var _ Accumulator = (*Stash)(nil)

// Open replays buf into subject, when it holds a log, and returns the journaled wrapper
func Open(schema *journal.Schema[Accumulator], subject Accumulator, buf *buffer.Buffer, cfg journal.Config) (*Stash, error) {
	j, err := journal.Open(schema, subject, buf, cfg)
	if err != nil {
		return nil, err
	}
	s := &Stash{
		journal: j,
		store:   schema.MustMethod("Store"),
		push:    schema.MustMethod("Push"),
		label:   schema.MustMethod("Label"),
		values:  schema.MustMethod("Values"),
		sum:     schema.MustMethod("Sum"),
	}
	j.Bind(s)
	return s, nil
}

func (s *Stash) Store(value int32) (int32, error) {
	out, err := s.journal.Call(s.store, value)
	if err != nil {
		return 0, err
	}
	return out.(int32), nil
}

func (s *Stash) Push(value int32) (Accumulator, error) {
	out, err := s.journal.Call(s.push, value)
	if err != nil {
		return nil, err
	}
	return out.(Accumulator), nil
}

// Label records name with the journal's clock; the at argument is ignored
func (s *Stash) Label(name string, at int64) error {
	_, err := s.journal.Call(s.label, name, at)
	return err
}

func (s *Stash) Values() ([]int32, error) {
	out, err := s.journal.Call(s.values)
	if err != nil {
		return nil, err
	}
	return out.([]int32), nil
}

func (s *Stash) Sum() (int32, error) {
	out, err := s.journal.Call(s.sum)
	if err != nil {
		return 0, err
	}
	return out.(int32), nil
}

// Journal returns the underlying journal
func (s *Stash) Journal() *journal.Journal[Accumulator] {
	return s.journal
}
