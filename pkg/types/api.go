package types

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindRemote        ErrKind = iota // backing session call failed (network, auth, remote-side)
	ErrKindEncoding                     // wire payload does not match its declared type tag
	ErrKindKeyNotFound                  // requested child key has no case-insensitive match
	ErrKindValueNotFound                // requested value name has no case-insensitive match
	ErrKindType                         // requested decode doesn't match the value kind
	ErrKindLoader                       // target, credential, or device resolution failed
	ErrKindState                        // invalid operation for current state (e.g., closed session)
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrKeyNotFound)
// holds for every key-lookup miss regardless of the wrapped detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && e.Kind == t.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrRemoteFetch indicates the backing session call failed. Fetch results
	// are never cached on failure, so re-invoking the accessor retries.
	ErrRemoteFetch = &Error{Kind: ErrKindRemote, Msg: "remote fetch failed"}
	// ErrInvalidEncoding indicates a raw value's data did not match the
	// textual encoding its wire tag declares (bad hex, non-numeric integer).
	ErrInvalidEncoding = &Error{Kind: ErrKindEncoding, Msg: "invalid value encoding"}
	// ErrKeyNotFound indicates a missing child key (lookup miss, not a fetch failure).
	ErrKeyNotFound = &Error{Kind: ErrKindKeyNotFound, Msg: "registry key not found"}
	// ErrValueNotFound indicates a missing named value on a key.
	ErrValueNotFound = &Error{Kind: ErrKindValueNotFound, Msg: "registry value not found"}
	// ErrTypeMismatch indicates the requested decode doesn't match the value kind.
	ErrTypeMismatch = &Error{Kind: ErrKindType, Msg: "registry value has different kind"}
	// ErrLoader indicates target assembly failed (credentials, device, URI).
	ErrLoader = &Error{Kind: ErrKindLoader, Msg: "loader failed"}
	// ErrClosed indicates an operation on a closed session.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "session is closed"}
)

// -----------------------------------------------------------------------------
// Wire value model
// -----------------------------------------------------------------------------

// Wire type tags as received from the live-response backend. Matching is
// case-sensitive; any tag outside this set decodes as a plain string.
const (
	TagBinary      = "pbREG_BINARY"
	TagDword       = "pbREG_DWORD"
	TagQword       = "pbREG_QWORD"
	TagMultiString = "pbREG_MULTI_SZ"
)

// ValueKind is the closed set of decoded value representations. The wire
// format is stringly typed; KindOf collapses it into this enum with
// KindString as the permissive default.
type ValueKind uint8

const (
	KindString ValueKind = iota // default/plain string (also unknown tags)
	KindBinary                  // hex-encoded byte sequence
	KindDword                   // 32-bit integer on the wire, held as uint64
	KindQword                   // 64-bit integer
	KindMultiString             // comma-joined string list
)

// KindOf maps a wire tag to its decoded kind. Unknown tags are deliberately
// treated as plain strings rather than errors.
func KindOf(tag string) ValueKind {
	switch tag {
	case TagBinary:
		return KindBinary
	case TagDword:
		return KindDword
	case TagQword:
		return KindQword
	case TagMultiString:
		return KindMultiString
	default:
		return KindString
	}
}

// String implements the Stringer interface for ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "STRING"
	case KindBinary:
		return "BINARY"
	case KindDword:
		return "DWORD"
	case KindQword:
		return "QWORD"
	case KindMultiString:
		return "MULTI_STRING"
	default:
		return "UNKNOWN"
	}
}

// ValueRecord is one raw value entry exactly as the backend returned it.
type ValueRecord struct {
	Name string // value name, case-preserving
	Data string // textual payload, encoding per Type
	Type string // wire tag, case-sensitive as received
}

// KeyListing is the result of one remote "list keys and values" call.
// SubKeys preserve backend order; no ordering beyond that is guaranteed.
type KeyListing struct {
	SubKeys []string
	Values  []ValueRecord
}

// -----------------------------------------------------------------------------
// Session collaborator
// -----------------------------------------------------------------------------

// OSType identifies the endpoint operating system as reported by the
// live-response session.
type OSType int

const (
	OSUnknown OSType = 0
	OSWindows OSType = 1
	OSLinux   OSType = 2
)

func (o OSType) String() string {
	switch o {
	case OSWindows:
		return "windows"
	case OSLinux:
		return "linux"
	default:
		return "unknown"
	}
}

// DirEntry is one entry of a remote directory listing.
type DirEntry struct {
	Name    string
	Size    int64
	Dir     bool
	ModTime time.Time
}

// Session is the sole channel to the remote endpoint. Implementations must
// be safe for use from multiple goroutines but may serialize calls
// internally; every call blocks for at least one network round trip.
// Timeouts and cancellation are the session's responsibility, surfaced
// through the supplied context.
type Session interface {
	// ListKeysAndValues enumerates the direct children and values of a
	// registry key addressed by a full backslash-joined path.
	ListKeysAndValues(ctx context.Context, path string) (*KeyListing, error)

	// ListDirectory enumerates a filesystem directory on the endpoint.
	ListDirectory(ctx context.Context, path string) ([]DirEntry, error)

	// ReadFile retrieves the full contents of a file on the endpoint.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// OS reports the endpoint operating system.
	OS() OSType

	// Drives lists the endpoint's drive roots (e.g., "C:\\" on Windows,
	// "/" elsewhere).
	Drives() []string

	// Close terminates the live-response session.
	Close(ctx context.Context) error
}
