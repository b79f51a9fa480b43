package driver

import (
	"strconv"
	"strings"
)

// openOptions is the parsed form of an Open option string.
type openOptions struct {
	busyTimeout int
	readOnly    bool
	sharedCache bool
}

// parseOpenOptions splits a semicolon-separated option string after
// stripping all spaces. Unknown or malformed tokens are ignored, so
// option order never matters.
func parseOpenOptions(s string) openOptions {
	opts := openOptions{busyTimeout: 5000}
	for _, tok := range strings.Split(strings.ReplaceAll(s, " ", ""), ";") {
		switch {
		case strings.HasPrefix(tok, "BUSY_TIMEOUT="):
			if ms, err := strconv.Atoi(strings.TrimPrefix(tok, "BUSY_TIMEOUT=")); err == nil {
				opts.busyTimeout = ms
			}
		case tok == "OPEN_READONLY":
			opts.readOnly = true
		case tok == "ENABLE_SHARED_CACHE":
			opts.sharedCache = true
		}
	}
	return opts
}
