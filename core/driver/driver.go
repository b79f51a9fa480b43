// Package driver adapts the embedded SQLite engine to a small generic
// database API: variant values, prepared statements with positional
// binds, cached or forward-only cursors, transactions and schema
// introspection.
//
// The adapter speaks to the engine strictly through the statement,
// step, bind and column primitives exposed by the internal engine
// package. Result types are mapped per value from the runtime storage
// class, falling back to declared column types only when a result set
// is empty.
package driver
