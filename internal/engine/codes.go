package engine

import (
	"fmt"

	lib "modernc.org/sqlite/lib"
)

// Code is a SQLite result code as returned by the engine's C API.
// Extended result codes are not enabled; Step and friends return
// primary codes only, but Primary is provided for callers that
// receive codes from other paths.
type Code int32

// Result codes the adapter dispatches on.
const (
	CodeOK         Code = lib.SQLITE_OK
	CodeError      Code = lib.SQLITE_ERROR
	CodeBusy       Code = lib.SQLITE_BUSY
	CodeLocked     Code = lib.SQLITE_LOCKED
	CodeConstraint Code = lib.SQLITE_CONSTRAINT
	CodeMisuse     Code = lib.SQLITE_MISUSE
	CodeRow        Code = lib.SQLITE_ROW
	CodeDone       Code = lib.SQLITE_DONE
)

// OK reports whether the code signals success.
func (c Code) OK() bool { return c == CodeOK }

// Primary strips any extended-result-code bits.
func (c Code) Primary() Code { return c & 0xff }

func (c Code) String() string {
	switch c.Primary() {
	case CodeOK:
		return "SQLITE_OK"
	case CodeError:
		return "SQLITE_ERROR"
	case CodeBusy:
		return "SQLITE_BUSY"
	case CodeLocked:
		return "SQLITE_LOCKED"
	case CodeConstraint:
		return "SQLITE_CONSTRAINT"
	case CodeMisuse:
		return "SQLITE_MISUSE"
	case CodeRow:
		return "SQLITE_ROW"
	case CodeDone:
		return "SQLITE_DONE"
	default:
		return fmt.Sprintf("sqlite code %d", int32(c))
	}
}

// StorageClass is the engine's runtime per-value type tag, independent of
// the declared column type.
type StorageClass int32

// Storage classes.
const (
	ClassInteger StorageClass = lib.SQLITE_INTEGER
	ClassFloat   StorageClass = lib.SQLITE_FLOAT
	ClassText    StorageClass = lib.SQLITE_TEXT
	ClassBlob    StorageClass = lib.SQLITE_BLOB
	ClassNull    StorageClass = lib.SQLITE_NULL
)

func (s StorageClass) String() string {
	switch s {
	case ClassInteger:
		return "INTEGER"
	case ClassFloat:
		return "FLOAT"
	case ClassText:
		return "TEXT"
	case ClassBlob:
		return "BLOB"
	case ClassNull:
		return "NULL"
	default:
		return fmt.Sprintf("storage class %d", int32(s))
	}
}

// OpenFlags are flags for Open, matching sqlite3_open_v2.
type OpenFlags int32

// Open modes.
const (
	OpenReadOnly  OpenFlags = lib.SQLITE_OPEN_READONLY
	OpenReadWrite OpenFlags = lib.SQLITE_OPEN_READWRITE
	OpenCreate    OpenFlags = lib.SQLITE_OPEN_CREATE
)
