// Package store provides a SQLite-backed store for local objects.
//
// Each object is one row of the objects table, keyed by type name and primary
// key, with its properties serialized as JSON. References are stored as the
// target's primary key and hydrated again on Load, so a graph of objects
// round-trips through the store.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection: SQLite has one writer
//
// Every write bumps updated_seq, a store-wide logical counter, so callers can
// ask for objects changed since a given point without relying on wall time.
//
// Store implements codec.Resolver: FindOrCreate persists a stub holding only
// the primary key when the object does not exist yet.
package store
