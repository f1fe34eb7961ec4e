// Package lockmap implements a per-key mutual-exclusion registry: an entry
// for a key exists only while at least one caller holds or is waiting for
// the lock on that key, and is created/removed on demand.
//
// A caller already holding the lock for a key that acquires it again for
// the same key will deadlock; this is documented, not detected.
package lockmap
