// Package engine is a minimal pure-Go binding to the embedded SQLite
// engine's public C API (modernc.org/sqlite/lib). It exposes exactly the
// connection/statement/step/bind/column surface the driver adapter needs
// and nothing else: SQL parsing, execution, paging and locking all stay
// inside the engine.
//
// A Conn and its Stmts may only be used from one goroutine at a time;
// the engine's busy timeout provides the only cross-connection
// serialization.
package engine

import (
	"fmt"
	"sync"
	"unsafe"

	"modernc.org/libc"
	"modernc.org/libc/sys/types"
	lib "modernc.org/sqlite/lib"
)

const ptrSize = types.Size_t(unsafe.Sizeof(uintptr(0)))

var initOnce sync.Once

func initlib(tls *libc.TLS) {
	initOnce.Do(func() {
		lib.Xsqlite3_initialize(tls)
	})
}

// EnableSharedCache toggles the engine's process-wide shared-cache mode.
// This is global, non-reentrant state: it affects every connection opened
// afterwards and must not be flipped concurrently with Open calls from
// other goroutines.
func EnableSharedCache(enabled bool) Code {
	tls := libc.NewTLS()
	defer tls.Close()
	initlib(tls)
	v := int32(0)
	if enabled {
		v = 1
	}
	return Code(lib.Xsqlite3_enable_shared_cache(tls, v))
}

// Conn is an open engine database handle (sqlite3*).
type Conn struct {
	tls  *libc.TLS
	conn uintptr
}

// Open opens a database file with sqlite3_open_v2. The returned Conn owns
// the handle. When the engine reports failure, Open still returns a Conn
// carrying the failed handle so the caller can read the diagnostic
// message; the caller must Close it.
func Open(path string, flags OpenFlags) (*Conn, Code, error) {
	tls := libc.NewTLS()
	initlib(tls)
	cpath, err := libc.CString(path)
	if err != nil {
		tls.Close()
		return nil, CodeError, fmt.Errorf("engine: open %q: %w", path, err)
	}
	defer libc.Xfree(tls, cpath)
	connPtr, err := malloc(tls, ptrSize)
	if err != nil {
		tls.Close()
		return nil, CodeError, fmt.Errorf("engine: open %q: %w", path, err)
	}
	defer libc.Xfree(tls, connPtr)

	res := Code(lib.Xsqlite3_open_v2(tls, cpath, connPtr, int32(flags), 0))
	c := &Conn{tls: tls, conn: *(*uintptr)(unsafe.Pointer(connPtr))}
	if c.conn == 0 {
		// Not even enough memory for the sqlite3 object.
		tls.Close()
		return nil, res, fmt.Errorf("engine: open %q: out of memory", path)
	}
	return c, res, nil
}

// Close closes the handle with sqlite3_close. The handle is released and
// the Conn is unusable afterwards regardless of the returned code.
func (c *Conn) Close() Code {
	if c.conn == 0 {
		return CodeOK
	}
	res := Code(lib.Xsqlite3_close(c.tls, c.conn))
	c.conn = 0
	c.tls.Close()
	c.tls = nil
	return res
}

// SetBusyTimeout installs the engine's sleeping busy handler with the
// given timeout in milliseconds.
func (c *Conn) SetBusyTimeout(ms int) {
	lib.Xsqlite3_busy_timeout(c.tls, c.conn, int32(ms))
}

// Prepare compiles the first statement in sql with sqlite3_prepare_v2.
// tail is the unconsumed remainder of sql after the first statement;
// callers that require single statements must inspect it. On a non-OK
// code the returned Stmt is nil.
func (c *Conn) Prepare(sql string) (*Stmt, string, Code) {
	csql, err := libc.CString(sql)
	if err != nil {
		return nil, "", CodeError
	}
	defer libc.Xfree(c.tls, csql)
	stmtPtr, err := malloc(c.tls, ptrSize)
	if err != nil {
		return nil, "", CodeError
	}
	defer libc.Xfree(c.tls, stmtPtr)
	tailPtr, err := malloc(c.tls, ptrSize)
	if err != nil {
		return nil, "", CodeError
	}
	defer libc.Xfree(c.tls, tailPtr)

	res := Code(lib.Xsqlite3_prepare_v2(c.tls, c.conn, csql, -1, stmtPtr, tailPtr))
	if !res.OK() {
		return nil, "", res
	}
	ctail := *(*uintptr)(unsafe.Pointer(tailPtr))
	tail := ""
	if ctail != 0 {
		tail = sql[int(ctail-csql):]
	}
	handle := *(*uintptr)(unsafe.Pointer(stmtPtr))
	if handle == 0 {
		// sql was empty or whitespace/comments only.
		return nil, tail, res
	}
	return &Stmt{conn: c, stmt: handle}, tail, res
}

// Changes is sqlite3_changes: rows modified by the most recent statement
// on this connection.
func (c *Conn) Changes() int {
	return int(lib.Xsqlite3_changes(c.tls, c.conn))
}

// LastInsertRowID is sqlite3_last_insert_rowid.
func (c *Conn) LastInsertRowID() int64 {
	return lib.Xsqlite3_last_insert_rowid(c.tls, c.conn)
}

// ErrMsg returns the engine's current English diagnostic text.
func (c *Conn) ErrMsg() string {
	if c.conn == 0 {
		return "connection closed"
	}
	return libc.GoString(lib.Xsqlite3_errmsg(c.tls, c.conn))
}

// ErrCode returns the engine's current primary result code.
func (c *Conn) ErrCode() Code {
	if c.conn == 0 {
		return CodeMisuse
	}
	return Code(lib.Xsqlite3_errcode(c.tls, c.conn))
}

func malloc(tls *libc.TLS, n types.Size_t) (uintptr, error) {
	p := libc.Xmalloc(tls, n)
	if p == 0 {
		return 0, fmt.Errorf("out of memory")
	}
	return p, nil
}

func mustCString(s string) uintptr {
	p, err := libc.CString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// cFuncPointer converts a function defined by a function declaration to a
// C pointer, per the memory layout described in https://golang.org/s/go11func.
// The result of using cFuncPointer on closures is undefined.
func cFuncPointer[T any](f T) uintptr {
	return *(*uintptr)(unsafe.Pointer(&struct{ f T }{f}))
}
