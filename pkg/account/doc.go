// Package account defines the billable account record and its persistence
// boundary. The Store contract is deliberately narrow: lookups by id and by
// provider subscription id, plus an Update that applies a mutator atomically
// per account id. Three implementations ship with the package: an in-memory
// store for tests and single-process deployments, a PostgreSQL store using
// row locks, and a MongoDB store using optimistic version CAS.
package account
