// Package ring is a small journaled subject: a fixed ring of int32 slots that reports the
// sum of its slots after every store.
//
// Accumulator is the journaled interface, Ring the plain implementation, and Stash the
// wrapper that records every mutating call into a journal.
package ring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyLabel is returned by Label for an empty name
var ErrEmptyLabel = errors.New("ring: label name is empty")

// Size is the number of slots in a ring
const Size = 5

// Accumulator is the journaled interface
type Accumulator interface {
	// Store writes value into the next slot and returns the sum of all slots.
	Store(value int32) (int32, error)
	// Push is Store for fluent use; it returns the accumulator itself.
	Push(value int32) (Accumulator, error)
	// Label records a named point in time.
	Label(name string, at int64) error
	// Values returns a copy of the slots. It is never recorded.
	Values() ([]int32, error)
	// Sum returns the sum of the slots. It is never recorded.
	Sum() (int32, error)
}

// Mark is a label recorded with Label
type Mark struct {
	Name string
	At   int64 // epoch milliseconds
}

// Ring is the plain Accumulator
type Ring struct {
	slots [Size]int32
	index int
	marks []Mark
}

var _ Accumulator = (*Ring)(nil)

// New returns an all-zero ring
func New() *Ring {
	return &Ring{}
}

func (r *Ring) Store(value int32) (int32, error) {
	r.slots[r.index] = value
	r.index = (r.index + 1) % Size
	return r.sum(), nil
}

func (r *Ring) Push(value int32) (Accumulator, error) {
	if _, err := r.Store(value); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ring) Label(name string, at int64) error {
	if name == "" {
		return ErrEmptyLabel
	}
	r.marks = append(r.marks, Mark{Name: name, At: at})
	return nil
}

func (r *Ring) Values() ([]int32, error) {
	out := make([]int32, Size)
	copy(out, r.slots[:])
	return out, nil
}

func (r *Ring) Sum() (int32, error) {
	return r.sum(), nil
}

// Marks returns the recorded labels in order
func (r *Ring) Marks() []Mark {
	return append([]Mark(nil), r.marks...)
}

func (r *Ring) sum() int32 {
	var total int32
	for _, v := range r.slots {
		total += v
	}
	return total
}

// String renders the ring as "[1, 2, 3, 0, 0] = 6"
func (r *Ring) String() string {
	parts := make([]string, Size)
	for i, v := range r.slots {
		parts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("[%s] = %d", strings.Join(parts, ", "), r.sum())
}
