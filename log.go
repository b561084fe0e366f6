package tether

import (
	"fmt"
	"os"
)

// logf prints an informational message to stderr.
func logf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[tether] "+format+"\n", args...)
}

// warnf prints a non-fatal warning to stderr.
func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[tether] warning: "+format+"\n", args...)
}

// errorf prints an error-level message to stderr.
func errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[tether] error: "+format+"\n", args...)
}
