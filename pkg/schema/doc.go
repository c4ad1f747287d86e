// Package schema declares relational tables and columns and provides the
// boolean-expression builders used for filters and join conditions.
// Tables are configuration objects: built once at startup and immutable
// afterwards. The query engine in pkg/crudset consumes them; it never
// modifies them.
package schema
