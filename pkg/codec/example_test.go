package codec_test

import (
	"fmt"
	"log"
	"reflect"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/codec"
)

// ExamplePutNatural shows the variable-length encoding of a natural number
func ExamplePutNatural() {
	buf := buffer.New(codec.MaxNaturalLen)
	if err := codec.PutNatural(buf, 300); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% x\n", buf.Bytes())

	buf.Flip()
	v, err := codec.Natural(buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v)

	// Output:
	// ac 02
	// 300
}

// ExampleRegistry_Resolve shows which kind of codec serves a few parameter types
func ExampleRegistry_Resolve() {
	registry := codec.DefaultRegistry()

	keys := []codec.Key{
		codec.KeyOf[string](),
		codec.KeyOf[*int32](),
		{Type: reflect.TypeFor[int64](), Natural: true},
		codec.KeyOf[map[string]int](),
	}
	for _, key := range keys {
		c, err := registry.Resolve(key)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: %s\n", key, c.Kind)
	}

	// Output:
	// string: primitive
	// *int32: primitive
	// @N int64: natural
	// map[string]int: fallback
}
