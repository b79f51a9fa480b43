package engine

import (
	"unsafe"

	"modernc.org/libc"
	"modernc.org/libc/sys/types"
	lib "modernc.org/sqlite/lib"
)

// Stmt is a compiled statement handle (sqlite3_stmt*). It is valid only
// while its owning Conn is open.
type Stmt struct {
	conn *Conn
	stmt uintptr
}

var emptyCString = mustCString("")

// sqliteStatic mirrors SQLITE_STATIC: the bound buffer is owned by the
// caller and stays valid until rebind.
const sqliteStatic uintptr = 0

// freeFuncPtr hands bound copies to the engine for freeing, the
// SQLITE_TRANSIENT-with-malloc pattern.
var freeFuncPtr = cFuncPointer(libc.Xfree)

// Finalize is sqlite3_finalize. The Stmt is unusable afterwards.
func (s *Stmt) Finalize() Code {
	if s.stmt == 0 {
		return CodeOK
	}
	res := Code(lib.Xsqlite3_finalize(s.conn.tls, s.stmt))
	s.stmt = 0
	return res
}

// Reset is sqlite3_reset: rewinds the statement so it can be stepped
// again. Bound values are retained.
func (s *Stmt) Reset() Code {
	return Code(lib.Xsqlite3_reset(s.conn.tls, s.stmt))
}

// ClearBindings is sqlite3_clear_bindings.
func (s *Stmt) ClearBindings() Code {
	return Code(lib.Xsqlite3_clear_bindings(s.conn.tls, s.stmt))
}

// Step is sqlite3_step. Callers dispatch on the raw code: CodeRow,
// CodeDone, or an error code.
func (s *Stmt) Step() Code {
	return Code(lib.Xsqlite3_step(s.conn.tls, s.stmt))
}

// BindParameterCount is sqlite3_bind_parameter_count.
func (s *Stmt) BindParameterCount() int {
	return int(lib.Xsqlite3_bind_parameter_count(s.conn.tls, s.stmt))
}

// BindNull binds SQL NULL to the 1-based parameter index.
func (s *Stmt) BindNull(param int) Code {
	return Code(lib.Xsqlite3_bind_null(s.conn.tls, s.stmt, int32(param)))
}

// BindInt64 binds a 64-bit integer to the 1-based parameter index.
func (s *Stmt) BindInt64(param int, v int64) Code {
	return Code(lib.Xsqlite3_bind_int64(s.conn.tls, s.stmt, int32(param), v))
}

// BindDouble binds a float to the 1-based parameter index.
func (s *Stmt) BindDouble(param int, v float64) Code {
	return Code(lib.Xsqlite3_bind_double(s.conn.tls, s.stmt, int32(param), v))
}

// BindText binds a string to the 1-based parameter index. The engine
// receives its own copy and frees it when the binding is replaced.
func (s *Stmt) BindText(param int, v string) Code {
	if len(v) == 0 {
		return Code(lib.Xsqlite3_bind_text(s.conn.tls, s.stmt, int32(param), emptyCString, 0, sqliteStatic))
	}
	p, err := malloc(s.conn.tls, types.Size_t(len(v)))
	if err != nil {
		return CodeError
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(v)), v)
	return Code(lib.Xsqlite3_bind_text(s.conn.tls, s.stmt, int32(param), p, int32(len(v)), freeFuncPtr))
}

// BindBlob binds a byte slice to the 1-based parameter index. The engine
// receives its own copy and frees it when the binding is replaced.
func (s *Stmt) BindBlob(param int, v []byte) Code {
	if len(v) == 0 {
		return Code(lib.Xsqlite3_bind_blob(s.conn.tls, s.stmt, int32(param), emptyCString, 0, sqliteStatic))
	}
	p, err := malloc(s.conn.tls, types.Size_t(len(v)))
	if err != nil {
		return CodeError
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(v)), v)
	return Code(lib.Xsqlite3_bind_blob(s.conn.tls, s.stmt, int32(param), p, int32(len(v)), freeFuncPtr))
}

// ColumnCount is sqlite3_column_count: columns in the result set of the
// compiled statement (zero for non-SELECT statements).
func (s *Stmt) ColumnCount() int {
	if s.stmt == 0 {
		return 0
	}
	return int(lib.Xsqlite3_column_count(s.conn.tls, s.stmt))
}

// ColumnName is sqlite3_column_name for the 0-based column index.
func (s *Stmt) ColumnName(col int) string {
	return libc.GoString(lib.Xsqlite3_column_name(s.conn.tls, s.stmt, int32(col)))
}

// ColumnDeclType is sqlite3_column_decltype: the declared SQL type from
// the table schema, or "" for expressions and typeless columns.
func (s *Stmt) ColumnDeclType(col int) string {
	return libc.GoString(lib.Xsqlite3_column_decltype(s.conn.tls, s.stmt, int32(col)))
}

// ColumnType is sqlite3_column_type: the runtime storage class of the
// value in the current row. Undefined unless the last Step returned
// CodeRow.
func (s *Stmt) ColumnType(col int) StorageClass {
	return StorageClass(lib.Xsqlite3_column_type(s.conn.tls, s.stmt, int32(col)))
}

// ColumnInt32 is sqlite3_column_int.
func (s *Stmt) ColumnInt32(col int) int32 {
	return lib.Xsqlite3_column_int(s.conn.tls, s.stmt, int32(col))
}

// ColumnInt64 is sqlite3_column_int64.
func (s *Stmt) ColumnInt64(col int) int64 {
	return lib.Xsqlite3_column_int64(s.conn.tls, s.stmt, int32(col))
}

// ColumnDouble is sqlite3_column_double.
func (s *Stmt) ColumnDouble(col int) float64 {
	return lib.Xsqlite3_column_double(s.conn.tls, s.stmt, int32(col))
}

// ColumnText returns the column value as a string, sized by
// sqlite3_column_bytes (UTF-8 length).
func (s *Stmt) ColumnText(col int) string {
	p := lib.Xsqlite3_column_text(s.conn.tls, s.stmt, int32(col))
	if p == 0 {
		return ""
	}
	n := int(lib.Xsqlite3_column_bytes(s.conn.tls, s.stmt, int32(col)))
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// ColumnBlob returns a copy of the column's bytes. The copy is
// independent of the engine's row buffer.
func (s *Stmt) ColumnBlob(col int) []byte {
	p := lib.Xsqlite3_column_blob(s.conn.tls, s.stmt, int32(col))
	if p == 0 {
		return nil
	}
	n := int(lib.Xsqlite3_column_bytes(s.conn.tls, s.stmt, int32(col)))
	out := make([]byte, n)
	copy(out, libc.GoBytes(p, n))
	return out
}
