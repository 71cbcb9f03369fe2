// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Document Store
//
//   - documentdb.Client: point reads, paged queries and writes against a
//     partitioned collection (internal/documentdb/documentdb.go). Drivers live
//     in internal/documentdb/{sqlite,surreal,memory}.
//
// ## Data Access
//
//   - repository.Entity: anything with an id and an integer partition key
//     (internal/repository/repository.go)
//   - StudentStore: the controller's view of the student repository
//     (internal/http/students.go)
//   - StudentCreator: the seed command's view of it (internal/cli/seed.go)
//
// ## Health
//
//   - Pinger: store reachability for /health (internal/http/health.go)
//
// # Adding a New Document Driver
//
//  1. Create a package under internal/documentdb/ with a Store type that
//     implements every documentdb.Client method, returning the sentinel
//     errors (ErrNotFound, ErrConflict, ErrPartitionKeyMismatch,
//     ErrInvalidQuery, ErrConnection) so callers can classify failures.
//
//  2. Page QueryDocuments with an opaque continuation token; an empty token
//     means the scan is exhausted.
//
//  3. Add a DOCUMENTDB_DRIVER value in internal/config and a case in
//     entrypoint.OpenStore.
//
//  4. Add a compile-time check to checks.go:
//
//	var _ documentdb.Client = (*mydriver.Store)(nil)
package interfaces
