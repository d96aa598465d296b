package journal

import (
	"fmt"
	"hash/crc32"
	"reflect"
	"strings"
	"time"

	"github.com/ssargent/stash/pkg/clock"
)

// Identity is the fixed-width tag written in front of every logged call
type Identity uint32

func (id Identity) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

// Param describes one parameter of a journaled method
type Param struct {
	Name    string
	Type    reflect.Type
	Natural bool // encode with the variable-length natural number codec
	Time    bool // receives the record time instead of the caller's value
}

// ParamOf declares a plain parameter of type T
func ParamOf[T any](name string) Param {
	return Param{Name: name, Type: reflect.TypeFor[T]()}
}

// NaturalParam declares a non-negative integer parameter encoded as a natural number
func NaturalParam[T int | int32 | int64 | uint | uint32 | uint64](name string) Param {
	return Param{Name: name, Type: reflect.TypeFor[T](), Natural: true}
}

// TimeParam declares the parameter that receives the record time, as epoch milliseconds
// or as a time.Time
func TimeParam[T int64 | time.Time](name string) Param {
	return Param{Name: name, Type: reflect.TypeFor[T](), Time: true}
}

// Descriptor is the text that contributes p to its method's identity
func (p Param) Descriptor() string {
	switch {
	case p.Time:
		return "@Time " + p.Type.String()
	case p.Natural:
		return "@N " + p.Type.String()
	default:
		return p.Type.String()
	}
}

func (p Param) String() string {
	if p.Name == "" {
		return p.Descriptor()
	}
	return p.Name + " " + p.Descriptor()
}

// Hash computes the identity of a method: CRC32-IEEE over the name followed by each
// parameter descriptor.
func Hash(name string, params []Param) Identity {
	var sb strings.Builder
	sb.WriteString(name)
	for _, p := range params {
		sb.WriteString(p.Descriptor())
	}
	return Identity(crc32.ChecksumIEEE([]byte(sb.String())))
}

var (
	int64Type = reflect.TypeFor[int64]()
	timeType  = reflect.TypeFor[time.Time]()
)

// timeValue converts the logged milliseconds into the declared time parameter type
func timeValue(t reflect.Type, ms int64) any {
	if t == timeType {
		return clock.FromMillis(ms)
	}
	return ms
}
