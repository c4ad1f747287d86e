// Package crudset is a field-level access-control and query-assembly
// layer between application code and a relational store.
//
// A Readset declares which columns of a table may be read and how
// related tables join into the result; a Writeset or Sanitizer declares
// and validates what may be written. A Crud binds the two together and
// exposes create/fetch/count/update/delete operations that respect the
// declarations uniformly. Fix derives a scoped Crud whose every query
// and write is constrained to constant column values, which is how
// per-tenant views are built.
//
// The store itself is an external collaborator behind the Store
// interface; internal/sqlite provides the SQLite implementation.
package crudset

// Version is the crudset library version.
const Version = "0.3.0"
