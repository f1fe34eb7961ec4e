// Package rwlockmap implements a per-key reader/writer lock registry: an
// entry for a key exists only while at least one caller holds or is waiting
// on that key's lock, and is created/removed on demand.
//
// Each key's lock supports the same three modes as internal/asyncrwlock:
// any number of concurrent readers, a single exclusive writer, and a single
// upgradeable reader that may transition in place to the writer lock without
// releasing and re-acquiring the key's entry.
//
// A caller already holding the writer lock (or the upgraded form of the
// upgradeable reader lock) for a key that acquires it again for the same
// key will deadlock; this is documented, not detected.
package rwlockmap
