package engine

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Conn {
	t.Helper()
	c, code, err := Open(filepath.Join(t.TempDir(), "test.db"), OpenReadWrite|OpenCreate)
	if err != nil || !code.OK() {
		t.Fatalf("Open failed: code=%v err=%v", code, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// exec steps a one-shot statement to completion.
func exec(t *testing.T, c *Conn, sql string) {
	t.Helper()
	st, _, code := c.Prepare(sql)
	if !code.OK() {
		t.Fatalf("Prepare(%q) failed: %v (%s)", sql, code, c.ErrMsg())
	}
	defer st.Finalize()
	if res := st.Step(); res.Primary() != CodeDone {
		t.Fatalf("Step(%q) = %v, want done", sql, res)
	}
}

func TestOpenMissingReadOnly(t *testing.T) {
	c, code, _ := Open(filepath.Join(t.TempDir(), "missing.db"), OpenReadOnly)
	if code.OK() {
		c.Close()
		t.Fatal("read-only open of missing file succeeded")
	}
	// The handle is still live enough to read diagnostics from.
	if c != nil {
		if msg := c.ErrMsg(); msg == "" {
			t.Error("ErrMsg empty after failed open")
		}
		c.Close()
	}
}

func TestPrepareTail(t *testing.T) {
	c := openTestDB(t)

	tests := []struct {
		name     string
		sql      string
		wantTail string
	}{
		{"single", "SELECT 1", ""},
		{"trailing space", "SELECT 1;   ", "   "},
		{"second statement", "SELECT 1; SELECT 2", " SELECT 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, tail, code := c.Prepare(tt.sql)
			if !code.OK() {
				t.Fatalf("Prepare failed: %v", code)
			}
			if st != nil {
				st.Finalize()
			}
			if tail != tt.wantTail {
				t.Errorf("tail = %q, want %q", tail, tt.wantTail)
			}
		})
	}
}

func TestPrepareWhitespaceOnly(t *testing.T) {
	c := openTestDB(t)
	st, _, code := c.Prepare("   \n\t")
	if !code.OK() {
		t.Fatalf("Prepare of whitespace failed: %v", code)
	}
	// No statement compiles out of pure whitespace.
	if st != nil {
		t.Error("whitespace-only text produced a statement handle")
		st.Finalize()
	}
}

func TestStepBindColumn(t *testing.T) {
	c := openTestDB(t)
	exec(t, c, "CREATE TABLE t (i INTEGER, d DOUBLE, s TEXT, b BLOB)")

	ins, _, code := c.Prepare("INSERT INTO t VALUES (?, ?, ?, ?)")
	if !code.OK() {
		t.Fatalf("Prepare insert failed: %v", code)
	}
	defer ins.Finalize()
	if got := ins.BindParameterCount(); got != 4 {
		t.Fatalf("BindParameterCount() = %d, want 4", got)
	}
	ins.BindInt64(1, 41)
	ins.BindDouble(2, 0.5)
	ins.BindText(3, "hi")
	ins.BindBlob(4, []byte{1, 2, 3})
	if res := ins.Step(); res.Primary() != CodeDone {
		t.Fatalf("insert step = %v", res)
	}
	if got := c.Changes(); got != 1 {
		t.Errorf("Changes() = %d, want 1", got)
	}

	sel, _, code := c.Prepare("SELECT i, d, s, b FROM t")
	if !code.OK() {
		t.Fatalf("Prepare select failed: %v", code)
	}
	defer sel.Finalize()
	if res := sel.Step(); res.Primary() != CodeRow {
		t.Fatalf("select step = %v, want row", res)
	}
	if got := sel.ColumnCount(); got != 4 {
		t.Fatalf("ColumnCount() = %d, want 4", got)
	}
	if got := sel.ColumnInt64(0); got != 41 {
		t.Errorf("ColumnInt64(0) = %d", got)
	}
	if got := sel.ColumnDouble(1); got != 0.5 {
		t.Errorf("ColumnDouble(1) = %v", got)
	}
	if got := sel.ColumnText(2); got != "hi" {
		t.Errorf("ColumnText(2) = %q", got)
	}
	if got := sel.ColumnBlob(3); len(got) != 3 || got[0] != 1 {
		t.Errorf("ColumnBlob(3) = %v", got)
	}
	if got := sel.ColumnDeclType(0); got != "INTEGER" {
		t.Errorf("ColumnDeclType(0) = %q", got)
	}
	if got := sel.ColumnType(0); got != ClassInteger {
		t.Errorf("ColumnType(0) = %v", got)
	}
	if got := sel.ColumnName(3); got != "b" {
		t.Errorf("ColumnName(3) = %q", got)
	}
	if res := sel.Step(); res.Primary() != CodeDone {
		t.Errorf("second step = %v, want done", res)
	}
}

func TestResetAndRebind(t *testing.T) {
	c := openTestDB(t)
	exec(t, c, "CREATE TABLE t (v INTEGER)")

	ins, _, code := c.Prepare("INSERT INTO t VALUES (?)")
	if !code.OK() {
		t.Fatalf("Prepare failed: %v", code)
	}
	defer ins.Finalize()
	for i := int64(0); i < 3; i++ {
		ins.BindInt64(1, i)
		if res := ins.Step(); res.Primary() != CodeDone {
			t.Fatalf("step %d = %v", i, res)
		}
		if res := ins.Reset(); !res.OK() {
			t.Fatalf("reset %d = %v", i, res)
		}
		ins.ClearBindings()
	}
	if got := c.LastInsertRowID(); got != 3 {
		t.Errorf("LastInsertRowID() = %d, want 3", got)
	}
}

func TestConstraintCode(t *testing.T) {
	c := openTestDB(t)
	exec(t, c, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	exec(t, c, "INSERT INTO t VALUES (1)")

	st, _, code := c.Prepare("INSERT INTO t VALUES (1)")
	if !code.OK() {
		t.Fatalf("Prepare failed: %v", code)
	}
	defer st.Finalize()
	if res := st.Step(); res.Primary() != CodeConstraint {
		t.Errorf("duplicate insert step = %v, want constraint", res)
	}
	if msg := c.ErrMsg(); msg == "" {
		t.Error("ErrMsg empty after constraint violation")
	}
}
