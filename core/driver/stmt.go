package driver

import (
	"strings"

	"github.com/FocuswithJustin/sqlitex/internal/engine"
)

// classUnknown marks a column descriptor built without a runtime value,
// the empty-result-set case where sqlite3_column_type is undefined.
const classUnknown engine.StorageClass = -1

// column is one result-set column descriptor: name with quoting
// stripped, the inferred generic kind, and the raw storage class
// observed when the descriptor was built.
type column struct {
	name  string
	kind  Kind
	class engine.StorageClass
}

// Statement owns one compiled engine statement tied to its Connection.
// It buffers one row of lookahead: Execute peeks the first row to decide
// whether the statement produces rows, and the next fetch returns that
// row without stepping the engine again.
//
// A Statement is invalid once its Connection closes; subsequent use
// fails with a recorded error rather than touching a released handle.
type Statement struct {
	conn   *Connection
	handle *engine.Stmt

	cols []column

	// Lookahead state: skipRow means firstRow holds an already-fetched
	// row that the next fetch must return exactly once. skippedStatus
	// is the fetch result that was skipped.
	skipRow       bool
	skippedStatus bool
	firstRow      []Value

	active     bool
	selectStmt bool
	atEnd      bool
	lastErr    *Error
}

func newStatement(c *Connection) *Statement {
	s := &Statement{conn: c}
	c.registerStmt(s)
	return s
}

// Prepare compiles query as a single statement. It resets all prior
// state first. Text containing more than one statement is rejected;
// trailing whitespace after the first statement is fine.
func (s *Statement) Prepare(query string) error {
	if s.conn == nil {
		return s.setError(&Error{Kind: StatementError, Description: "statement closed", Code: -1})
	}
	if !s.conn.IsOpen() || s.conn.IsOpenError() {
		return s.setError(&Error{Kind: StatementError, Description: "connection not open", Code: -1})
	}

	s.cleanup()

	st, tail, code := s.conn.eng.Prepare(query)
	if !code.OK() {
		err := engineError(s.conn.eng, "unable to execute statement", StatementError, code)
		s.conn.logger().Debug("prepare failed", "sql", query, "err", err)
		return s.setError(err)
	}
	if strings.TrimSpace(tail) != "" {
		if st != nil {
			st.Finalize()
		}
		err := engineError(s.conn.eng, "unable to execute multiple statements at a time", StatementError, engine.CodeMisuse)
		return s.setError(err)
	}
	s.handle = st
	s.conn.logger().Debug("prepared statement", "sql", query)
	return nil
}

// Execute resets the compiled statement, binds args positionally and
// performs the lookahead fetch. The number of args must equal the
// statement's placeholder count; on mismatch the engine is not touched.
// After a successful Execute the statement is active, and row-producing
// iff the lookahead saw a result-set column.
func (s *Statement) Execute(args ...Value) error {
	if s.conn == nil {
		return s.setError(&Error{Kind: StatementError, Description: "statement closed", Code: -1})
	}

	s.skippedStatus = false
	s.skipRow = false
	s.cols = nil
	s.firstRow = nil
	s.atEnd = false
	s.active = false
	s.selectStmt = false
	s.lastErr = nil

	if s.handle != nil {
		if code := s.handle.Reset(); !code.OK() {
			err := engineError(s.conn.eng, "unable to reset statement", StatementError, code)
			s.finalize()
			return s.setError(err)
		}
	}

	paramCount := 0
	if s.handle != nil {
		paramCount = s.handle.BindParameterCount()
	}
	if paramCount != len(args) {
		return s.setError(&Error{Kind: StatementError, Description: "parameter count mismatch", Code: -1})
	}
	for i, v := range args {
		code := s.bindValue(i+1, v)
		if !code.OK() {
			err := engineError(s.conn.eng, "unable to bind parameters", StatementError, code)
			s.finalize()
			return s.setError(err)
		}
	}

	s.skippedStatus = s.fetchNext(nil, 0, true)
	if s.lastErr != nil {
		s.selectStmt = false
		s.active = false
		return s.lastErr
	}
	s.selectStmt = len(s.cols) > 0
	s.active = true
	return nil
}

// bindValue binds one variant to the 1-based parameter index,
// dispatching on the value's kind.
func (s *Statement) bindValue(param int, v Value) engine.Code {
	switch v.Kind() {
	case KindNull, KindInvalid:
		return s.handle.BindNull(param)
	case KindBlob:
		return s.handle.BindBlob(param, v.Bytes())
	case KindInteger:
		return s.handle.BindInt64(param, v.Int())
	case KindDouble:
		return s.handle.BindDouble(param, v.Float())
	case KindText:
		return s.handle.BindText(param, v.Text())
	default:
		// String-conversion fallback for values without a native bind.
		return s.handle.BindText(param, v.String())
	}
}

// fetchNext advances the cursor one row, writing the row's values into
// dest starting at idx. A pending lookahead row is returned first and
// consumed. Returns true while a row is available; on DONE or error it
// marks end-of-results and leaves the statement reset for rebinding.
//
// When initialFetch is set (Execute's peek) the row is written into the
// internal lookahead buffer instead of dest.
func (s *Statement) fetchNext(dest []Value, idx int, initialFetch bool) bool {
	if s.skipRow {
		// Already fetched by the lookahead; hand it out exactly once.
		s.skipRow = false
		copy(dest[idx:], s.firstRow)
		return s.skippedStatus
	}
	s.skipRow = initialFetch

	if s.handle == nil {
		s.setError(&Error{Kind: ConnectionError, Description: "unable to fetch row", DatabaseText: "no query", Code: -1})
		s.atEnd = true
		return false
	}
	if initialFetch {
		s.firstRow = make([]Value, s.handle.ColumnCount())
		dest = s.firstRow
		idx = 0
	}

	res := s.handle.Step()
	switch res.Primary() {
	case engine.CodeRow:
		if len(s.cols) == 0 {
			// First row: build the descriptors from live values.
			s.initColumns(false)
		}
		if idx < 0 && !initialFetch {
			return true
		}
		for i := range s.cols {
			switch s.handle.ColumnType(i) {
			case engine.ClassBlob:
				dest[idx+i] = Blob(s.handle.ColumnBlob(i))
			case engine.ClassInteger:
				dest[idx+i] = Integer(s.handle.ColumnInt64(i))
			case engine.ClassFloat:
				switch s.conn.cfg.Precision {
				case LowPrecisionInt32:
					dest[idx+i] = Integer(int64(s.handle.ColumnInt32(i)))
				case LowPrecisionInt64:
					dest[idx+i] = Integer(s.handle.ColumnInt64(i))
				default:
					dest[idx+i] = Double(s.handle.ColumnDouble(i))
				}
			case engine.ClassNull:
				dest[idx+i] = Null()
			default:
				dest[idx+i] = Text(s.handle.ColumnText(i))
			}
		}
		return true
	case engine.CodeDone:
		if len(s.cols) == 0 {
			// Empty result set: descriptors come from declared types only.
			s.initColumns(true)
		}
		s.atEnd = true
		s.handle.Reset()
		return false
	case engine.CodeConstraint, engine.CodeError:
		// Generic error codes: reset to recover the specific message.
		res = s.handle.Reset()
		s.setError(engineError(s.conn.eng, "unable to fetch row", ConnectionError, res))
		s.atEnd = true
		return false
	default:
		// MISUSE, BUSY or anything unexpected. No descriptor population.
		s.setError(engineError(s.conn.eng, "unable to fetch row", ConnectionError, res))
		s.handle.Reset()
		s.atEnd = true
		return false
	}
}

// initColumns populates the column descriptors. With an empty result
// set the runtime storage class is undefined, so only the declared type
// is consulted.
func (s *Statement) initColumns(emptyResultSet bool) {
	n := s.handle.ColumnCount()
	if n <= 0 {
		return
	}
	s.cols = make([]column, 0, n)
	for i := 0; i < n; i++ {
		name := strings.ReplaceAll(s.handle.ColumnName(i), `"`, "")
		decl := s.handle.ColumnDeclType(i)
		class := classUnknown
		if !emptyResultSet {
			class = s.handle.ColumnType(i)
		}
		var kind Kind
		if decl != "" {
			kind = classify(decl)
		} else {
			kind = kindForClass(class)
		}
		s.cols = append(s.cols, column{name: name, kind: kind, class: class})
	}
}

// columnCount returns the number of populated column descriptors.
func (s *Statement) columnCount() int { return len(s.cols) }

// Columns returns the result-set descriptors as a Record. Empty unless
// the statement is active and row-producing.
func (s *Statement) Columns() Record {
	var rec Record
	if !s.active || !s.selectStmt {
		return rec
	}
	for _, c := range s.cols {
		rec.Append(Field{Name: c.name, Type: c.kind})
	}
	return rec
}

// AffectedRows reports the engine's changes counter for the owning
// connection: rows modified by the most recent statement, not scoped to
// this one.
func (s *Statement) AffectedRows() int {
	if s.conn == nil || !s.conn.IsOpen() {
		return 0
	}
	return s.conn.eng.Changes()
}

// LastInsertID returns the rowid of the most recent successful insert
// on the owning connection. ok is false when the statement is not
// active or no row was inserted through an auto-increment path. An
// active statement implies a live connection: invalidate clears the
// flag before the engine handle is released.
func (s *Statement) LastInsertID() (id int64, ok bool) {
	if !s.active {
		return 0, false
	}
	id = s.conn.eng.LastInsertRowID()
	if id == 0 {
		return 0, false
	}
	return id, true
}

// IsActive reports whether the last Execute succeeded.
func (s *Statement) IsActive() bool { return s.active }

// IsSelect reports whether the statement produces rows.
func (s *Statement) IsSelect() bool { return s.selectStmt }

// AtEnd reports whether iteration has passed the last row.
func (s *Statement) AtEnd() bool { return s.atEnd }

// LastError returns the most recently recorded error, or nil.
func (s *Statement) LastError() *Error { return s.lastErr }

// Detach resets the compiled statement without finalizing it, releasing
// the engine's row locks while keeping the statement reusable.
func (s *Statement) Detach() {
	if s.handle != nil {
		s.handle.Reset()
	}
}

// Close finalizes the compiled statement and detaches from the owning
// connection. Safe to call more than once.
func (s *Statement) Close() {
	s.cleanup()
	if s.conn != nil {
		s.conn.unregisterStmt(s)
		s.conn = nil
	}
}

// cleanup finalizes the compiled form and clears all per-execution state.
func (s *Statement) cleanup() {
	s.finalize()
	s.cols = nil
	s.firstRow = nil
	s.skipRow = false
	s.skippedStatus = false
	s.atEnd = false
	s.active = false
	s.selectStmt = false
}

func (s *Statement) finalize() {
	if s.handle != nil {
		s.handle.Finalize()
		s.handle = nil
	}
}

// invalidate is called by Connection.Close so no compiled statement
// outlives the engine handle.
func (s *Statement) invalidate() {
	s.finalize()
	s.active = false
}

func (s *Statement) setError(e *Error) *Error {
	s.lastErr = e
	if s.conn != nil {
		s.conn.logger().Debug("statement error", "kind", e.Kind.String(), "err", e)
	}
	return e
}
