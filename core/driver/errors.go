package driver

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitex/internal/engine"
)

// ErrorKind classifies a recorded error by the layer that produced it.
type ErrorKind int

// Error kinds.
const (
	// ConnectionError covers open/close failures and row-fetch failures
	// surfaced by the engine during stepping.
	ConnectionError ErrorKind = iota + 1
	// StatementError covers prepare, bind and reset failures.
	StatementError
	// TransactionError wraps a statement failure from BEGIN, COMMIT or
	// ROLLBACK.
	TransactionError
)

func (k ErrorKind) String() string {
	switch k {
	case ConnectionError:
		return "connection"
	case StatementError:
		return "statement"
	case TransactionError:
		return "transaction"
	default:
		return "unknown"
	}
}

// Error is the adapter's error value: a driver-side description, the
// engine's own diagnostic text, the layer that failed and the engine's
// numeric result code (-1 when the failure never reached the engine).
// Failed calls both return an *Error and record it on the Connection or
// Statement for later inspection via LastError.
type Error struct {
	Kind         ErrorKind
	Description  string
	DatabaseText string
	Code         int
}

func (e *Error) Error() string {
	if e.DatabaseText == "" {
		return fmt.Sprintf("sqlitex: %s error: %s", e.Kind, e.Description)
	}
	return fmt.Sprintf("sqlitex: %s error: %s: %s", e.Kind, e.Description, e.DatabaseText)
}

// engineError builds an Error carrying the engine's current diagnostic
// text for the given connection handle.
func engineError(c *engine.Conn, description string, kind ErrorKind, code engine.Code) *Error {
	return &Error{
		Kind:         kind,
		Description:  description,
		DatabaseText: c.ErrMsg(),
		Code:         int(code),
	}
}
