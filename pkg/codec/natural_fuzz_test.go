//go:build fuzz
// +build fuzz

package codec

import (
	"testing"

	"github.com/ssargent/stash/pkg/buffer"
)

// FuzzNatural_RoundTrip checks the round trip and the length law for arbitrary values
func FuzzNatural_RoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(127))
	f.Add(uint64(128))
	f.Add(uint64(16384))
	f.Add(^uint64(0))

	f.Fuzz(func(t *testing.T, v uint64) {
		b := buffer.New(0)
		if err := PutNaturalUint(b, v); err != nil {
			t.Fatalf("PutNaturalUint(%d) failed: %v", v, err)
		}
		if b.Len() != NaturalLen(v) {
			t.Fatalf("length %d, NaturalLen says %d", b.Len(), NaturalLen(v))
		}

		b.Flip()
		got, err := NaturalUint(b)
		if err != nil {
			t.Fatalf("NaturalUint failed: %v", err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	})
}

// FuzzNatural_Decode feeds arbitrary bytes to the decoder, which must never panic
func FuzzNatural_Decode(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0xAC, 0x02})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, raw []byte) {
		b, err := buffer.Wrap(raw, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := NaturalUint(b); err != nil {
			return
		}
		if b.Position() > MaxNaturalLen {
			t.Errorf("decoder consumed %d bytes", b.Position())
		}
	})
}
