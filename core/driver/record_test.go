package driver

import (
	"slices"
	"testing"
)

func TestRecordAccessors(t *testing.T) {
	var rec Record
	if !rec.IsEmpty() || rec.Len() != 0 {
		t.Errorf("zero record: IsEmpty() = %v, Len() = %d", rec.IsEmpty(), rec.Len())
	}
	rec.Append(Field{Name: "id", Type: KindInteger})
	rec.Append(Field{Name: "title", Type: KindText})

	if rec.Len() != 2 || rec.IsEmpty() {
		t.Errorf("Len() = %d, IsEmpty() = %v, want 2, false", rec.Len(), rec.IsEmpty())
	}
	if got := rec.Field(1).Name; got != "title" {
		t.Errorf("Field(1).Name = %q, want %q", got, "title")
	}
	if got := rec.IndexOf("title"); got != 1 {
		t.Errorf("IndexOf(title) = %d, want 1", got)
	}
	if got := rec.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}
	if got := rec.Names(); !slices.Equal(got, []string{"id", "title"}) {
		t.Errorf("Names() = %v", got)
	}
}

// Accessors must work directly on a Record returned by value, the way
// statement and connection callers chain them.
func TestRecordReturnedByValue(t *testing.T) {
	c := openTestConn(t)
	mustExec(t, c, "CREATE TABLE r (id INTEGER, name TEXT)")

	if got := c.Record("r").Names(); !slices.Equal(got, []string{"id", "name"}) {
		t.Errorf("Record(r).Names() = %v", got)
	}
	if got := c.Record("r").Field(0).Type; got != KindInteger {
		t.Errorf("Record(r).Field(0).Type = %v, want %v", got, KindInteger)
	}
	if c.PrimaryIndex("r").Len() != 0 {
		t.Error("PrimaryIndex on keyless table not empty")
	}
}
