// Package diagnostics defines the error taxonomy shared across the indexing
// core and the parse-error log that backs the parse_errors table.
package diagnostics

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Kind classifies an error the way the rest of the core branches on it:
// by stable tag rather than by Go type, so that store rows and log lines
// carry the same vocabulary.
type Kind uint

const (
	// ConfigError marks malformed configuration or compile databases.
	ConfigError Kind = iota
	// ParseWarning marks a per-file parser diagnostic; logged and stored,
	// never fails the overall index.
	ParseWarning
	// StoreBusy marks transient lock contention on the cache database.
	StoreBusy
	// StoreIO marks disk-full, permission-denied, or other unrecoverable
	// write failures.
	StoreIO
	// StoreCorrupt marks an integrity-check failure that triggers a
	// restore-from-backup or recreate.
	StoreCorrupt
	// QueryError marks an invalid regex or unknown tool argument.
	QueryError
	// Cancelled marks an operation aborted by the external cancellation
	// signal.
	Cancelled
	// Fatal marks an unrecoverable bug; the process exits after a
	// best-effort log flush.
	Fatal
)

// String renders the kind the way it appears in logs and in the
// parse_errors.error_kind column.
func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config_error"
	case ParseWarning:
		return "parse_warning"
	case StoreBusy:
		return "store_busy"
	case StoreIO:
		return "store_io"
	case StoreCorrupt:
		return "store_corrupt"
	case QueryError:
		return "query_error"
	case Cancelled:
		return "cancelled"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the structured error carried across core boundaries: a stable
// kind tag plus a human string, as required by the error-handling design.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error, preserving it as the cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on Kind alone, via the value Sentinel returns:
// errors.Is(err, diagnostics.Sentinel(diagnostics.StoreBusy)).
func (e *Error) Is(target error) bool {
	asKind, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(asKind)
}

type kindSentinel Kind

// Sentinel returns a value usable with errors.Is to test an Error's Kind,
// e.g. errors.Is(err, diagnostics.Sentinel(diagnostics.StoreBusy)).
func Sentinel(k Kind) error { return kindSentinel(k) }

func (s kindSentinel) Error() string { return Kind(s).String() }

// ErrParserUnavailable is returned by parser workers built without the
// `clang` tag, or when no libclang install could be discovered on any of
// the configured search paths.
var ErrParserUnavailable = New(ConfigError, "no C++ parser library available on any configured path")

// CorrelationID derives a short, stable identifier for one indexing run
// from the run's start time (as an opaque token, not wall-clock time) and
// the project fingerprint, so log lines from concurrent invocations
// against the same project can be told apart without a central log server.
func CorrelationID(projectFingerprint string, runToken uint64) string {
	h := xxhash.New()
	_, _ = h.WriteString(projectFingerprint)
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(runToken >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return fmt.Sprintf("%08x", h.Sum64()&0xffffffff)
}

// AsDiagnostic extracts a *Error from err if present, wrapping it as Fatal
// otherwise so callers always have a Kind to branch on.
func AsDiagnostic(err error) *Error {
	var d *Error
	if errors.As(err, &d) {
		return d
	}
	return Wrap(Fatal, err, "unclassified error")
}
