// Package storage defines μNet's backend-agnostic persistence
// contract (spec.md §4.2): the Store interface, query/pagination
// types, batch operation types, and the generic transaction helpers
// every concrete backend is driven through.
//
// Two backends implement Store: pkg/storage/tabular, a flat
// CSV-file-per-entity-kind store, and pkg/storage/relational, a
// sqlite-backed store with foreign-key cascades and audit tables
// (spec.md §4.3). Callers depend on this package's interface, never on
// a concrete backend type, so either can be swapped in by the process
// entry point based on the configured database URL.
package storage
