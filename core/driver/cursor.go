package driver

// Cursor position sentinels.
const (
	BeforeFirstRow = -1
	AfterLastRow   = -2
)

// Cursor executes statements and iterates their rows. By default every
// fetched row is cached so earlier rows can be revisited with Seek;
// forward-only mode keeps a single-row buffer instead.
type Cursor struct {
	conn *Connection
	stmt *Statement

	forwardOnly bool

	// cache holds fetched rows flattened row-major. In forward-only
	// mode it holds exactly one row, overwritten on each advance.
	cache    []Value
	colCount int
	rows     int
	at       int
}

func newCursor(c *Connection) *Cursor {
	return &Cursor{
		conn: c,
		stmt: newStatement(c),
		at:   BeforeFirstRow,
	}
}

// SetForwardOnly switches row caching off. Must be called before Exec;
// switching modes mid-iteration is not supported.
func (c *Cursor) SetForwardOnly(forward bool) {
	c.forwardOnly = forward
}

// ForwardOnly reports whether row caching is off.
func (c *Cursor) ForwardOnly() bool { return c.forwardOnly }

// Exec prepares and executes query with the given bind values. The
// cursor is positioned before the first row.
func (c *Cursor) Exec(query string, args ...Value) error {
	c.clear()
	if err := c.stmt.Prepare(query); err != nil {
		return err
	}
	if err := c.stmt.Execute(args...); err != nil {
		return err
	}
	c.colCount = c.stmt.columnCount()
	if c.forwardOnly && c.colCount > 0 {
		c.cache = make([]Value, c.colCount)
	}
	c.at = BeforeFirstRow
	return nil
}

// Next advances to the next row, fetching from the engine or, in cached
// mode, replaying an already-cached row. Returns false past the last
// row or when the cursor holds no row-producing statement.
func (c *Cursor) Next() bool {
	if !c.stmt.IsActive() || !c.stmt.IsSelect() {
		return false
	}
	if c.at == AfterLastRow {
		return false
	}

	next := c.at + 1
	if c.at == BeforeFirstRow {
		next = 0
	}

	if c.forwardOnly {
		if !c.stmt.fetchNext(c.cache, 0, false) {
			c.at = AfterLastRow
			return false
		}
		c.at = next
		return true
	}

	if next < c.rows {
		c.at = next
		return true
	}
	if !c.fetchRow() {
		c.at = AfterLastRow
		return false
	}
	c.at = next
	return true
}

// fetchRow appends one freshly fetched row to the cache. Once the
// statement has passed its last row it was reset for rebinding, so
// stepping it again would restart the query; the atEnd flag blocks that.
func (c *Cursor) fetchRow() bool {
	if c.stmt.AtEnd() {
		return false
	}
	offset := c.rows * c.colCount
	c.cache = append(c.cache, make([]Value, c.colCount)...)
	if !c.stmt.fetchNext(c.cache, offset, false) {
		c.cache = c.cache[:offset]
		return false
	}
	c.rows++
	return true
}

// Seek positions the cursor on the given zero-based row. In cached mode
// any already-visited row can be revisited; in forward-only mode only
// rows at or past the current position are reachable.
func (c *Cursor) Seek(row int) bool {
	if row < 0 || !c.stmt.IsActive() || !c.stmt.IsSelect() {
		return false
	}
	if c.forwardOnly {
		if c.at == AfterLastRow || (c.at != BeforeFirstRow && row < c.at) {
			return false
		}
		for c.at == BeforeFirstRow || c.at < row {
			if !c.Next() {
				return false
			}
		}
		return c.at == row
	}
	for c.rows <= row {
		if !c.fetchRow() {
			return false
		}
	}
	c.at = row
	return true
}

// At returns the current row position, or one of the sentinels.
func (c *Cursor) At() int { return c.at }

// Value returns column i of the current row. Invalid when the cursor is
// not on a row or i is out of range.
func (c *Cursor) Value(i int) Value {
	if c.at < 0 || i < 0 || i >= c.colCount {
		return Value{}
	}
	if c.forwardOnly {
		return c.cache[i]
	}
	return c.cache[c.at*c.colCount+i]
}

// Columns returns the result-set descriptors of the current statement.
func (c *Cursor) Columns() Record { return c.stmt.Columns() }

// IsActive reports whether the last Exec succeeded.
func (c *Cursor) IsActive() bool { return c.stmt.IsActive() }

// IsSelect reports whether the current statement produces rows.
func (c *Cursor) IsSelect() bool { return c.stmt.IsSelect() }

// AffectedRows reports rows changed by the most recent statement on the
// owning connection.
func (c *Cursor) AffectedRows() int { return c.stmt.AffectedRows() }

// LastInsertID returns the rowid of the most recent successful insert.
func (c *Cursor) LastInsertID() (int64, bool) { return c.stmt.LastInsertID() }

// LastError returns the statement's most recent error, or nil.
func (c *Cursor) LastError() *Error { return c.stmt.LastError() }

// Detach releases the engine's row locks without discarding the
// compiled statement. Cached rows stay readable; further fetching
// restarts the statement on the next Exec.
func (c *Cursor) Detach() { c.stmt.Detach() }

// Close releases the underlying statement. The cursor must not be used
// afterwards.
func (c *Cursor) Close() {
	c.stmt.Close()
	c.clear()
}

func (c *Cursor) clear() {
	c.cache = nil
	c.colCount = 0
	c.rows = 0
	c.at = BeforeFirstRow
}
