// Package codec encodes journal call arguments into a buffer.Buffer and decodes them back.
//
// Every parameter type of a journaled method is resolved once, when the schema is
// compiled, to a *Codec: an explicit encode/decode pair tagged with its Kind.
//
// # Natural numbers
//
// Parameters marked natural use a variable-length encoding of 7-bit groups, low group
// first, with the high bit set on every byte but the last:
//
//	0..127               1 byte
//	128..16383           2 bytes
//	16384..2097151       3 bytes
//	2097152..268435455   4 bytes
//	268435456..2^32-1    5 bytes
//
// and one more byte per additional 7 bits, up to MaxNaturalLen. Negative values are
// rejected with ErrInvalidArgument and nothing is written.
//
// # Basic codecs
//
// Fixed-width integers and floats are written big-endian; int and uint always take 8
// bytes. A boolean is one byte, 1 for true. Strings, byte slices and numeric slices are
// prefixed with their natural length. A primitive type and its pointer share one codec.
//
// # Enumerations
//
// Go has no enum construct, so enumerations are declared with Enum and handed to the
// registry. A constant is written as its one-byte ordinal.
//
// # Structured values
//
// A type T whose value implements Stashable and whose pointer implements Spawnable writes
// and rebuilds itself. No framing is added, so Spawn must consume exactly what Stash wrote.
//
// # Fallback
//
// Anything else is written as [u32 length][u8 version][msgpack payload]. The registry
// logs a warning whenever it resolves a type to the fallback.
//
// # Resolution
//
// A Registry resolves types in this order: custom codecs, plugin codecs, basic codecs,
// structured, enum, fallback. Resolutions are cached for the life of the registry, and a
// registry is safe for concurrent use.
package codec
