package driver

import "strings"

// EscapeIdentifier quotes name for embedding in SQL. Inner quotes are
// doubled and a dotted name is quoted per component. Names that already
// start or end with a quote pass through untouched.
func EscapeIdentifier(name string) string {
	if name == "" || strings.HasPrefix(name, `"`) || strings.HasSuffix(name, `"`) {
		return name
	}
	escaped := `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	return strings.ReplaceAll(escaped, ".", `"."`)
}

// tableInfo reads the engine's table description pragma and maps each
// row to a Field. With onlyPIndex set, non-primary-key columns are
// skipped. The pragma yields no rows for unknown tables, so those come
// back as an empty Record.
func tableInfo(c *Connection, table string, onlyPIndex bool) Record {
	schema := ""
	if i := strings.Index(table, "."); i >= 0 {
		schema = table[:i+1]
		table = table[i+1:]
	}

	cur := c.CreateCursor()
	cur.SetForwardOnly(true)
	defer cur.Close()
	cur.Exec("PRAGMA " + schema + "table_info (" + EscapeIdentifier(table) + ")")

	// Pragma columns: cid, name, type, notnull, dflt_value, pk.
	var rec Record
	for cur.Next() {
		isPk := cur.Value(5).Int() != 0
		if onlyPIndex && !isPk {
			continue
		}
		typeName := strings.ToLower(cur.Value(2).Text())
		f := Field{
			Name:     cur.Value(1).Text(),
			Type:     classify(typeName),
			Required: cur.Value(3).Int() != 0,
			Default:  cur.Value(4),
		}
		// Only the exact declared type "integer" aliases the rowid and
		// auto-generates values. "int primary key" does not.
		if isPk && typeName == "integer" {
			f.AutoValue = true
		}
		rec.Append(f)
	}
	return rec
}
