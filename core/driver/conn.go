package driver

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/FocuswithJustin/sqlitex/internal/engine"
)

// TableType selects which catalog entries Tables reports. Values
// combine as a bitmask.
type TableType int

const (
	UserTables TableType = 1 << iota
	Views
	SystemTables

	AllTables = UserTables | Views | SystemTables
)

// Config carries per-connection policy. The zero value is usable:
// high-precision floats, no extension hook and the process-wide logger.
type Config struct {
	// Precision governs how FLOAT storage-class values are surfaced.
	Precision PrecisionPolicy

	// ExtensionHook, when set, runs once after every successful Open
	// with the raw engine handle, before the connection is handed to
	// the caller. A hook failure is logged and does not fail the open.
	ExtensionHook func(*engine.Conn) error

	// Logger receives statement traces at debug level.
	Logger *slog.Logger
}

// Connection adapts one engine database handle. It tracks every
// Statement prepared through it so that Close can finalize them before
// releasing the handle.
//
// A Connection serializes nothing beyond its statement registry;
// callers drive it from one goroutine at a time.
type Connection struct {
	cfg Config
	eng *engine.Conn

	open    bool
	openErr bool
	lastErr *Error

	mu    sync.Mutex
	stmts map[*Statement]struct{}
}

// NewConnection returns a closed Connection with the given policy.
func NewConnection(cfg Config) *Connection {
	return &Connection{
		cfg:   cfg,
		stmts: make(map[*Statement]struct{}),
	}
}

// Open opens or creates the database file at path. options is a
// semicolon-separated list, spaces ignored:
//
//	BUSY_TIMEOUT=<ms>     busy handler timeout, default 5000
//	OPEN_READONLY         open read-only instead of read-write+create
//	ENABLE_SHARED_CACHE   enable the process-wide shared cache
//
// Unknown tokens are ignored. An already-open connection is closed
// first. On engine failure the connection is left closed with the open
// error flag set; the same Connection may be retried.
func (c *Connection) Open(path, options string) error {
	if c.open {
		c.Close()
	}
	if path == "" {
		return c.record(&Error{Kind: ConnectionError, Description: "invalid database path", Code: -1})
	}

	opts := parseOpenOptions(options)
	engine.EnableSharedCache(opts.sharedCache)

	flags := engine.OpenReadWrite | engine.OpenCreate
	if opts.readOnly {
		flags = engine.OpenReadOnly
	}

	eng, code, err := engine.Open(path, flags)
	if err != nil {
		c.openErr = true
		return c.record(&Error{Kind: ConnectionError, Description: "error opening database", DatabaseText: err.Error(), Code: int(code)})
	}
	if !code.OK() {
		e := engineError(eng, "error opening database", ConnectionError, code)
		eng.Close()
		c.openErr = true
		return c.record(e)
	}

	c.eng = eng
	c.eng.SetBusyTimeout(opts.busyTimeout)
	c.open = true
	c.openErr = false
	c.lastErr = nil

	if c.cfg.ExtensionHook != nil {
		if err := c.cfg.ExtensionHook(c.eng); err != nil {
			c.logger().Debug("extension hook failed", "err", err)
		}
	}
	c.logger().Debug("opened database", "path", path, "readonly", opts.readOnly)
	return nil
}

// Close finalizes every registered statement, then releases the engine
// handle. The connection ends up closed even when the engine reports a
// close failure; the failure is recorded and returned.
func (c *Connection) Close() error {
	if !c.open {
		return nil
	}

	c.mu.Lock()
	for st := range c.stmts {
		st.invalidate()
	}
	c.mu.Unlock()

	code := c.eng.Close()
	c.eng = nil
	c.open = false
	c.openErr = false
	if !code.OK() {
		return c.record(&Error{Kind: ConnectionError, Description: "error closing database", DatabaseText: code.String(), Code: int(code)})
	}
	return nil
}

// IsOpen reports whether the connection holds a live engine handle.
func (c *Connection) IsOpen() bool { return c.open }

// IsOpenError reports whether the most recent Open failed.
func (c *Connection) IsOpenError() bool { return c.openErr }

// LastError returns the most recent connection-level error, or nil.
func (c *Connection) LastError() *Error { return c.lastErr }

// Handle exposes the raw engine connection for callers that need
// facilities the adapter does not surface. Nil while closed.
func (c *Connection) Handle() *engine.Conn {
	if !c.open {
		return nil
	}
	return c.eng
}

// CreateCursor returns a new cursor bound to this connection.
func (c *Connection) CreateCursor() *Cursor {
	return newCursor(c)
}

// BeginTransaction starts an explicit transaction.
func (c *Connection) BeginTransaction() error {
	return c.execTransaction("BEGIN", "unable to begin transaction")
}

// CommitTransaction commits the current transaction.
func (c *Connection) CommitTransaction() error {
	return c.execTransaction("COMMIT", "unable to commit transaction")
}

// RollbackTransaction rolls back the current transaction.
func (c *Connection) RollbackTransaction() error {
	return c.execTransaction("ROLLBACK", "unable to rollback transaction")
}

// execTransaction runs one transaction-control statement through a
// fresh cursor and rewraps any failure as a transaction error.
func (c *Connection) execTransaction(sql, desc string) error {
	if !c.open || c.openErr {
		return c.record(&Error{Kind: TransactionError, Description: desc, DatabaseText: "database not open", Code: -1})
	}
	cur := c.CreateCursor()
	defer cur.Close()
	if err := cur.Exec(sql); err != nil {
		e := &Error{Kind: TransactionError, Description: desc, Code: -1}
		if se, ok := err.(*Error); ok {
			e.DatabaseText = se.DatabaseText
			e.Code = se.Code
		} else {
			e.DatabaseText = err.Error()
		}
		return c.record(e)
	}
	return nil
}

// Tables lists catalog names of the requested types, querying both the
// permanent and the temporary catalog. When SystemTables is requested
// the catalog's own name is appended, as the catalog does not list
// itself.
func (c *Connection) Tables(t TableType) []string {
	if !c.open {
		return nil
	}

	var where string
	switch {
	case t&UserTables != 0 && t&Views != 0:
		where = "type='table' OR type='view'"
	case t&UserTables != 0:
		where = "type='table'"
	case t&Views != 0:
		where = "type='view'"
	}

	var names []string
	if where != "" {
		sql := "SELECT name FROM sqlite_master WHERE " + where +
			" UNION ALL SELECT name FROM sqlite_temp_master WHERE " + where
		cur := c.CreateCursor()
		cur.SetForwardOnly(true)
		defer cur.Close()
		if err := cur.Exec(sql); err == nil {
			for cur.Next() {
				names = append(names, cur.Value(0).Text())
			}
		}
	}
	if t&SystemTables != 0 {
		// There is no entry for the catalog table itself.
		names = append(names, "sqlite_master")
	}
	return names
}

// Record describes the columns of table, in declaration order. The
// table name may carry a schema qualifier and may already be escaped.
// Unknown tables yield an empty record.
func (c *Connection) Record(table string) Record {
	if !c.open {
		return Record{}
	}
	return tableInfo(c, unescapeIdentifier(table), false)
}

// PrimaryIndex describes the primary-key subset of table's columns.
func (c *Connection) PrimaryIndex(table string) Record {
	if !c.open {
		return Record{}
	}
	return tableInfo(c, unescapeIdentifier(table), true)
}

// EscapeIdentifier quotes an identifier for safe embedding in SQL text.
func (c *Connection) EscapeIdentifier(name string) string {
	return EscapeIdentifier(name)
}

func (c *Connection) registerStmt(s *Statement) {
	c.mu.Lock()
	c.stmts[s] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) unregisterStmt(s *Statement) {
	c.mu.Lock()
	delete(c.stmts, s)
	c.mu.Unlock()
}

func (c *Connection) record(e *Error) *Error {
	c.lastErr = e
	c.logger().Debug("connection error", "kind", e.Kind.String(), "err", e)
	return e
}

func (c *Connection) logger() *slog.Logger {
	if c.cfg.Logger != nil {
		return c.cfg.Logger
	}
	return slog.Default()
}

// unescapeIdentifier strips one layer of quote delimiters when the
// identifier is fully delimited, undoing doubled inner quotes.
func unescapeIdentifier(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return name
}
