// Package buffer provides the in-memory byte buffer a journal records into.
//
// A Buffer behaves like a cursor over a growable byte slice:
//
//	[0 ........ position ........ limit ........ capacity]
//
// Writes happen at the position and advance it, overwriting existing bytes and growing
// the slice up to the limit. Reads consume bytes between the position and the smaller of
// the limit and the written length. Mark and Reset let a writer re-read bytes it has just
// written, and PutUint64At overwrites a fixed offset (the journal's commit counter)
// without disturbing the cursor.
//
// All fixed-width values are big-endian.
//
// # Thread Safety
//
// Buffer is not safe for concurrent use. A journal owns exactly one buffer and callers
// serialize access to it.
package buffer
