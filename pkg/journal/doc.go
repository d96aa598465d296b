// Package journal records the calls made on a subject into a compact binary log and
// rebuilds an equivalent subject by replaying that log.
//
// A subject is described by a list of Signatures. Compile turns them into a Schema: every
// method gets an Identity (CRC32 of its name and parameter descriptors) and every
// parameter a codec from a codec.Registry. Open binds a schema, a subject and a
// buffer.Buffer into a Journal, replaying the buffer first when it already holds a log.
//
// # Log layout
//
//	offset 0   u64 commit counter
//	then       counter entries of [u32 identity][u64 time, optional][parameters]
//
// All fixed-width fields are big-endian. The counter only advances after an entry was
// written and the subject accepted the call, so it always equals the number of entries a
// replay will apply.
//
// # Recording
//
// With verification on (the default) a call is written, the cursor is moved back to the
// start of its arguments, and the subject is invoked with arguments decoded from those
// bytes: recording runs the same routine as replay. With verification off the subject is
// invoked with the caller's arguments directly.
//
// A time parameter is never taken from the caller. The journal reads its clock once,
// writes the milliseconds and passes that value to the subject.
//
// Volatile methods are forwarded to the subject and never logged. Chainable methods that
// return the subject return the bound wrapper instead (see Journal.Bind).
package journal
