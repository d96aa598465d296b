package journal

import (
	"testing"

	"github.com/ssargent/stash/pkg/buffer"
)

func benchmarkCall(b *testing.B, verify bool) {
	schema := compileLedger(b, verify)
	j := openLedger(b, schema, &ledger{}, buffer.New(0), nil)
	add := schema.MustMethod("Add")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := j.Call(add, int32(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCall_Verify(b *testing.B) { benchmarkCall(b, true) }
func BenchmarkCall_Direct(b *testing.B) { benchmarkCall(b, false) }

func BenchmarkOpen_Replay(b *testing.B) {
	schema := compileLedger(b, false)
	j := openLedger(b, schema, &ledger{}, buffer.New(0), nil)
	add := schema.MustMethod("Add")
	for i := 0; i < 10000; i++ {
		if _, err := j.Call(add, int32(i)); err != nil {
			b.Fatal(err)
		}
	}
	data := append([]byte(nil), j.Bytes()...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, err := buffer.Wrap(append([]byte(nil), data...), 0)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Open(schema, &ledger{}, buf, Config{}); err != nil {
			b.Fatal(err)
		}
	}
}
