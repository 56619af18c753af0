// Package store provides SQLite-backed storage for encoded literals.
//
// It keeps two things:
//   - Literal functions: the magic-literal signatures a plan consumer must be
//     able to resolve, keyed by qualified name
//   - Fragments: encoded expression lists with their content fingerprint
//
// # Ordering
//
// Signatures list by qualified name. Fragments list by id; ids are UUIDv7 so
// this is creation order. Queries always end with COLLATE BINARY so results
// do not depend on the connection's collation settings.
//
// # Idempotency
//
// Registering an identical signature twice is a no-op. Registering a
// different signature under an existing name is a conflict.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are tracked with PRAGMA user_version.
package store
